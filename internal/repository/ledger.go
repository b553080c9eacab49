package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	// Credit adds points to the cached balance and appends the matching
	// transaction row. Callers must hold a database transaction so the
	// pair commits as one unit.
	Credit(ctx context.Context, userID string, amount uint64, kind entity.LedgerKind, referenceID string) error

	// Debit is the mirror of Credit. It returns gorm.ErrRecordNotFound
	// when the balance is below amount, leaving both the balance and
	// the log untouched.
	Debit(ctx context.Context, userID string, amount uint64, kind entity.LedgerKind, referenceID string) error

	Balance(ctx context.Context, userID string) (uint64, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.LedgerTransaction, error)
	GetByReference(ctx context.Context, kind entity.LedgerKind, referenceID string) ([]entity.LedgerTransaction, error)
	SumDeltaByUserID(ctx context.Context, userID string) (int64, error)
}

type ledgerRepository struct {
	idGenerator *snowflake.Node
}

func NewLedgerRepository(nodeID int64) *ledgerRepository {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		panic(err)
	}

	return &ledgerRepository{idGenerator: node}
}

func (r *ledgerRepository) Credit(
	ctx context.Context, userID string, amount uint64,
	kind entity.LedgerKind, referenceID string,
) error {
	tx := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", userID).
		Update("points", gorm.Expr("points+?", amount))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return xcontext.DB(ctx).Create(&entity.LedgerTransaction{
		SnowFlakeBase: entity.SnowFlakeBase{ID: r.idGenerator.Generate().Int64()},
		UserID:        userID,
		Delta:         int64(amount),
		Kind:          kind,
		ReferenceID:   referenceID,
	}).Error
}

func (r *ledgerRepository) Debit(
	ctx context.Context, userID string, amount uint64,
	kind entity.LedgerKind, referenceID string,
) error {
	tx := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points-?", amount))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return xcontext.DB(ctx).Create(&entity.LedgerTransaction{
		SnowFlakeBase: entity.SnowFlakeBase{ID: r.idGenerator.Generate().Int64()},
		UserID:        userID,
		Delta:         -int64(amount),
		Kind:          kind,
		ReferenceID:   referenceID,
	}).Error
}

func (r *ledgerRepository) Balance(ctx context.Context, userID string) (uint64, error) {
	var user entity.User
	if err := xcontext.DB(ctx).Take(&user, "id=?", userID).Error; err != nil {
		return 0, err
	}

	return user.Points, nil
}

func (r *ledgerRepository) GetByUserID(
	ctx context.Context, userID string,
) ([]entity.LedgerTransaction, error) {
	var result []entity.LedgerTransaction
	err := xcontext.DB(ctx).Where("user_id=?", userID).
		Order("id DESC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ledgerRepository) GetByReference(
	ctx context.Context, kind entity.LedgerKind, referenceID string,
) ([]entity.LedgerTransaction, error) {
	var result []entity.LedgerTransaction
	err := xcontext.DB(ctx).
		Where("kind=? AND reference_id=?", kind, referenceID).
		Order("id ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ledgerRepository) SumDeltaByUserID(ctx context.Context, userID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.LedgerTransaction{}).
		Where("user_id=?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}
