package repository

import (
	"context"
	"errors"

	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContestRepository interface {
	Create(ctx context.Context, contest *entity.Contest) error
	GetByID(ctx context.Context, contestID string) (*entity.Contest, error)
	GetByPhase(ctx context.Context, phases ...entity.ContestPhase) ([]entity.Contest, error)

	// UpdatePhase flips the phase only when the contest is currently in
	// the from phase; gorm.ErrRecordNotFound means the contest was not
	// in that phase (or does not exist), and the caller re-reads to
	// find out which.
	UpdatePhase(ctx context.Context, contestID string, from, to entity.ContestPhase) error

	// IncreaseCollectedFees is guarded on the phase so the contest row
	// update serializes the caller's transaction against a concurrent
	// phase flip; gorm.ErrRecordNotFound means the contest left that
	// phase (or does not exist).
	IncreaseCollectedFees(ctx context.Context, contestID string, phase entity.ContestPhase, amount uint64) error

	// CreateEnrollment reports gorm.ErrDuplicatedKey when the user is
	// already enrolled.
	CreateEnrollment(ctx context.Context, enrollment *entity.ContestEnrollment) error
	GetEnrollment(ctx context.Context, contestID, userID string) (*entity.ContestEnrollment, error)
	GetEnrollmentsByContestID(ctx context.Context, contestID string) ([]entity.ContestEnrollment, error)
	SetFinalScore(ctx context.Context, contestID, userID string, score uint64) error

	CreatePayout(ctx context.Context, payout *entity.Payout) error
	GetPayoutsByContestID(ctx context.Context, contestID string) ([]entity.Payout, error)
}

type contestRepository struct{}

func NewContestRepository() *contestRepository {
	return &contestRepository{}
}

func (r *contestRepository) Create(ctx context.Context, contest *entity.Contest) error {
	return xcontext.DB(ctx).Create(contest).Error
}

func (r *contestRepository) GetByID(ctx context.Context, contestID string) (*entity.Contest, error) {
	var result entity.Contest
	if err := xcontext.DB(ctx).Take(&result, "id=?", contestID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *contestRepository) GetByPhase(
	ctx context.Context, phases ...entity.ContestPhase,
) ([]entity.Contest, error) {
	var result []entity.Contest
	if err := xcontext.DB(ctx).Find(&result, "phase IN (?)", phases).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *contestRepository) UpdatePhase(
	ctx context.Context, contestID string, from, to entity.ContestPhase,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Contest{}).
		Where("id=? AND phase=?", contestID, from).
		Update("phase", to)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *contestRepository) IncreaseCollectedFees(
	ctx context.Context, contestID string, phase entity.ContestPhase, amount uint64,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Contest{}).
		Where("id=? AND phase=?", contestID, phase).
		Update("collected_fees", gorm.Expr("collected_fees+?", amount))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *contestRepository) CreateEnrollment(
	ctx context.Context, enrollment *entity.ContestEnrollment,
) error {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(enrollment)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrDuplicatedKey
	}

	return nil
}

func (r *contestRepository) GetEnrollment(
	ctx context.Context, contestID, userID string,
) (*entity.ContestEnrollment, error) {
	var result entity.ContestEnrollment
	err := xcontext.DB(ctx).
		Where("contest_id=? AND user_id=?", contestID, userID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *contestRepository) GetEnrollmentsByContestID(
	ctx context.Context, contestID string,
) ([]entity.ContestEnrollment, error) {
	var result []entity.ContestEnrollment
	err := xcontext.DB(ctx).Where("contest_id=?", contestID).
		Order("created_at ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SetFinalScore checks the contest phase in the same statement as the
// enrollment update, so a score can never land after the contest left
// the active phase. The caller distinguishes a missing enrollment from
// a phase change by re-reading the contest.
func (r *contestRepository) SetFinalScore(
	ctx context.Context, contestID, userID string, score uint64,
) error {
	tx := xcontext.DB(ctx).Model(&entity.ContestEnrollment{}).
		Where("contest_id=? AND user_id=?", contestID, userID).
		Where("(SELECT phase FROM contests WHERE contests.id=?)=?", contestID, entity.ContestActive).
		Updates(map[string]any{"final_score": score, "scored": true})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *contestRepository) CreatePayout(ctx context.Context, payout *entity.Payout) error {
	return xcontext.DB(ctx).Create(payout).Error
}

func (r *contestRepository) GetPayoutsByContestID(
	ctx context.Context, contestID string,
) ([]entity.Payout, error) {
	var result []entity.Payout
	err := xcontext.DB(ctx).Where("contest_id=?", contestID).
		Order("rank ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
