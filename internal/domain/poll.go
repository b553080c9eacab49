package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pollcraft/backend/internal/common"
	"github.com/pollcraft/backend/internal/domain/notification"
	"github.com/pollcraft/backend/internal/domain/notification/event"
	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/internal/model"
	"github.com/pollcraft/backend/internal/repository"
	"github.com/pollcraft/backend/pkg/errorx"
	"github.com/pollcraft/backend/pkg/xcontext"
	"github.com/pollcraft/backend/pkg/xredis"
	"gorm.io/gorm"
)

type PollDomain interface {
	CreatePoll(context.Context, *model.CreatePollRequest) (*model.CreatePollResponse, error)
	GetPolls(context.Context, *model.GetPollsRequest) (*model.GetPollsResponse, error)
	GetPoll(context.Context, *model.GetPollRequest) (*model.GetPollResponse, error)
	GetResults(context.Context, *model.GetPollResultsRequest) (*model.GetPollResultsResponse, error)
	CastVote(context.Context, *model.CastVoteRequest) (*model.CastVoteResponse, error)
}

type pollDomain struct {
	pollRepo           repository.PollRepository
	ledgerRepo         repository.LedgerRepository
	globalRoleVerifier *common.GlobalRoleVerifier
	redisClient        xredis.Client
	notifier           notification.Notifier
}

func NewPollDomain(
	pollRepo repository.PollRepository,
	ledgerRepo repository.LedgerRepository,
	globalRoleVerifier *common.GlobalRoleVerifier,
	redisClient xredis.Client,
	notifier notification.Notifier,
) *pollDomain {
	return &pollDomain{
		pollRepo:           pollRepo,
		ledgerRepo:         ledgerRepo,
		globalRoleVerifier: globalRoleVerifier,
		redisClient:        redisClient,
		notifier:           notifier,
	}
}

func (d *pollDomain) CreatePoll(
	ctx context.Context, req *model.CreatePollRequest,
) (*model.CreatePollResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty title")
	}

	if len(req.Options) < 2 {
		return nil, errorx.New(errorx.BadRequest, "A poll needs at least two options")
	}

	if req.StartTime != nil && req.EndTime != nil && !req.StartTime.Before(*req.EndTime) {
		return nil, errorx.New(errorx.BadRequest, "Invalid voting window")
	}

	poll := &entity.Poll{
		Base:      entity.Base{ID: uuid.NewString()},
		Title:     req.Title,
		Category:  req.Category,
		CreatedBy: xcontext.RequestUserID(ctx),
	}

	if req.StartTime != nil {
		poll.StartTime = sql.NullTime{Valid: true, Time: *req.StartTime}
	}

	if req.EndTime != nil {
		poll.EndTime = sql.NullTime{Valid: true, Time: *req.EndTime}
	}

	options := make([]entity.PollOption, 0, len(req.Options))
	for i, text := range req.Options {
		if text == "" {
			return nil, errorx.New(errorx.BadRequest, "Not allow an empty option %d", i+1)
		}

		options = append(options, entity.PollOption{
			Base:        entity.Base{ID: uuid.NewString()},
			PollID:      poll.ID,
			OptionIndex: i,
			Text:        text,
		})
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.pollRepo.Create(ctx, poll, options); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create poll: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.CreatePollResponse{ID: poll.ID}, nil
}

func (d *pollDomain) GetPolls(
	ctx context.Context, req *model.GetPollsRequest,
) (*model.GetPollsResponse, error) {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if req.Limit == 0 {
		req.Limit = apiCfg.DefaultLimit
	}

	if req.Limit < 0 {
		return nil, errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	if req.Limit > apiCfg.MaxLimit {
		return nil, errorx.New(errorx.BadRequest, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	polls, err := d.pollRepo.GetList(ctx, req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get polls: %v", err)
		return nil, errorx.Unknown
	}

	modelPolls := []model.Poll{}
	for i := range polls {
		options, err := d.pollRepo.GetOptions(ctx, polls[i].ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get poll options: %v", err)
			return nil, errorx.Unknown
		}

		modelPolls = append(modelPolls, model.ConvertPoll(&polls[i], options))
	}

	return &model.GetPollsResponse{Polls: modelPolls}, nil
}

func (d *pollDomain) GetPoll(
	ctx context.Context, req *model.GetPollRequest,
) (*model.GetPollResponse, error) {
	poll, err := d.pollRepo.GetByID(ctx, req.PollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found poll")
		}

		xcontext.Logger(ctx).Errorf("Cannot get poll: %v", err)
		return nil, errorx.Unknown
	}

	options, err := d.pollRepo.GetOptions(ctx, poll.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get poll options: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetPollResponse{Poll: model.ConvertPoll(poll, options)}, nil
}

func (d *pollDomain) GetResults(
	ctx context.Context, req *model.GetPollResultsRequest,
) (*model.GetPollResultsResponse, error) {
	var cached model.GetPollResultsResponse
	err := d.redisClient.GetObj(ctx, common.RedisKeyPollTally(req.PollID), &cached)
	if err == nil {
		return &cached, nil
	}

	poll, err := d.pollRepo.GetByID(ctx, req.PollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found poll")
		}

		xcontext.Logger(ctx).Errorf("Cannot get poll: %v", err)
		return nil, errorx.Unknown
	}

	options, err := d.pollRepo.GetOptions(ctx, poll.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get poll options: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetPollResultsResponse{
		TotalVotes: poll.TotalVotes,
		Tally:      model.ConvertOptionTallies(options, poll.TotalVotes),
	}

	d.cacheTally(ctx, poll.ID, resp)

	return resp, nil
}

func (d *pollDomain) CastVote(
	ctx context.Context, req *model.CastVoteRequest,
) (*model.CastVoteResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	poll, err := d.pollRepo.GetByID(ctx, req.PollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found poll")
		}

		xcontext.Logger(ctx).Errorf("Cannot get poll: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now()
	if poll.StartTime.Valid && now.Before(poll.StartTime.Time) {
		return nil, errorx.New(errorx.PollClosed, "Poll has not started yet")
	}

	if poll.EndTime.Valid && !now.Before(poll.EndTime.Time) {
		return nil, errorx.New(errorx.PollClosed, "Poll is closed")
	}

	options, err := d.pollRepo.GetOptions(ctx, poll.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get poll options: %v", err)
		return nil, errorx.Unknown
	}

	if req.OptionIndex < 0 || req.OptionIndex >= len(options) {
		return nil, errorx.New(errorx.InvalidOption,
			"Option index must be in range [0, %d)", len(options))
	}

	func() {
		ctx = xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(ctx)

		err = d.pollRepo.CreateVote(ctx, &entity.Vote{
			Base:        entity.Base{ID: uuid.NewString()},
			PollID:      poll.ID,
			UserID:      userID,
			OptionIndex: req.OptionIndex,
		})
		if err != nil {
			return
		}

		if err = d.pollRepo.IncreaseTally(ctx, poll.ID, req.OptionIndex); err != nil {
			return
		}

		ctx = xcontext.WithCommitDBTransaction(ctx)
	}()

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errorx.New(errorx.AlreadyVoted, "You have already voted in this poll")
		}

		xcontext.Logger(ctx).Errorf("Cannot record vote: %v", err)
		return nil, errorx.Unknown
	}

	// The vote is committed at this point. The reward is credited in its
	// own transaction so a ledger hiccup never takes the vote with it.
	pointsAwarded := d.creditVoteReward(ctx, userID, poll.ID)

	poll, err = d.pollRepo.GetByID(ctx, poll.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload poll: %v", err)
		return nil, errorx.Unknown
	}

	options, err = d.pollRepo.GetOptions(ctx, poll.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload poll options: %v", err)
		return nil, errorx.Unknown
	}

	tally := model.ConvertOptionTallies(options, poll.TotalVotes)
	d.cacheTally(ctx, poll.ID, &model.GetPollResultsResponse{
		TotalVotes: poll.TotalVotes,
		Tally:      tally,
	})

	d.notifier.Emit(ctx, event.New(
		&event.VoteCastEvent{
			PollID:      poll.ID,
			OptionIndex: req.OptionIndex,
			TotalVotes:  poll.TotalVotes,
			Tally:       tally,
		},
		event.Metadata{Channel: poll.ID},
	))

	return &model.CastVoteResponse{
		Tally:         tally,
		TotalVotes:    poll.TotalVotes,
		PointsAwarded: pointsAwarded,
	}, nil
}

// creditVoteReward retries a few times before giving up. A failure after
// the retries leaves the vote in place; the warning below is what the
// reconciliation job searches for.
func (d *pollDomain) creditVoteReward(ctx context.Context, userID, pollID string) uint64 {
	reward := xcontext.Configs(ctx).Poll.VoteReward
	if reward == 0 {
		return 0
	}

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = func() error {
			ctx = xcontext.WithDBTransaction(ctx)
			defer xcontext.WithRollbackDBTransaction(ctx)

			err := d.ledgerRepo.Credit(ctx, userID, reward, entity.LedgerVoteReward, pollID)
			if err != nil {
				return err
			}

			ctx = xcontext.WithCommitDBTransaction(ctx)
			return nil
		}()

		if err == nil {
			return reward
		}

		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}

	xcontext.Logger(ctx).Errorf(
		"Cannot credit vote reward of user %s for poll %s, need reconciliation: %v",
		userID, pollID, err)

	return 0
}

func (d *pollDomain) cacheTally(ctx context.Context, pollID string, resp *model.GetPollResultsResponse) {
	ttl := xcontext.Configs(ctx).Poll.TallyCacheTTL.Std()
	if ttl == 0 {
		return
	}

	err := d.redisClient.SetObj(ctx, common.RedisKeyPollTally(pollID), resp, ttl)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot cache poll tally: %v", err)
	}
}
