package repository

import (
	"context"
	"errors"

	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PollRepository interface {
	Create(ctx context.Context, poll *entity.Poll, options []entity.PollOption) error
	GetByID(ctx context.Context, pollID string) (*entity.Poll, error)
	GetList(ctx context.Context, offset, limit int) ([]entity.Poll, error)
	GetOptions(ctx context.Context, pollID string) ([]entity.PollOption, error)

	// CreateVote inserts the vote or reports gorm.ErrDuplicatedKey when
	// a vote for the same (poll, user) already exists. The uniqueness
	// constraint is the database index, so two concurrent callers can
	// never both succeed.
	CreateVote(ctx context.Context, vote *entity.Vote) error
	GetVote(ctx context.Context, pollID, userID string) (*entity.Vote, error)
	CountVotes(ctx context.Context, pollID string) (int64, error)

	// IncreaseTally bumps one option counter and the poll total in two
	// guarded updates; the caller wraps them in a transaction with the
	// vote insert.
	IncreaseTally(ctx context.Context, pollID string, optionIndex int) error
}

type pollRepository struct{}

func NewPollRepository() *pollRepository {
	return &pollRepository{}
}

func (r *pollRepository) Create(
	ctx context.Context, poll *entity.Poll, options []entity.PollOption,
) error {
	if err := xcontext.DB(ctx).Create(poll).Error; err != nil {
		return err
	}

	return xcontext.DB(ctx).Create(options).Error
}

func (r *pollRepository) GetByID(ctx context.Context, pollID string) (*entity.Poll, error) {
	var result entity.Poll
	if err := xcontext.DB(ctx).Take(&result, "id=?", pollID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *pollRepository) GetList(ctx context.Context, offset, limit int) ([]entity.Poll, error) {
	var result []entity.Poll
	err := xcontext.DB(ctx).Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *pollRepository) GetOptions(ctx context.Context, pollID string) ([]entity.PollOption, error) {
	var result []entity.PollOption
	err := xcontext.DB(ctx).Where("poll_id=?", pollID).
		Order("option_index ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *pollRepository) CreateVote(ctx context.Context, vote *entity.Vote) error {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(vote)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrDuplicatedKey
	}

	return nil
}

func (r *pollRepository) GetVote(ctx context.Context, pollID, userID string) (*entity.Vote, error) {
	var result entity.Vote
	err := xcontext.DB(ctx).Where("poll_id=? AND user_id=?", pollID, userID).Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *pollRepository) CountVotes(ctx context.Context, pollID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.Vote{}).Where("poll_id=?", pollID).Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *pollRepository) IncreaseTally(ctx context.Context, pollID string, optionIndex int) error {
	tx := xcontext.DB(ctx).Model(&entity.PollOption{}).
		Where("poll_id=? AND option_index=?", pollID, optionIndex).
		Update("votes", gorm.Expr("votes+1"))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	tx = xcontext.DB(ctx).Model(&entity.Poll{}).
		Where("id=?", pollID).
		Update("total_votes", gorm.Expr("total_votes+1"))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
