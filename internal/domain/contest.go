package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/pollcraft/backend/internal/common"
	"github.com/pollcraft/backend/internal/domain/leaderboard"
	"github.com/pollcraft/backend/internal/domain/notification"
	"github.com/pollcraft/backend/internal/domain/notification/event"
	"github.com/pollcraft/backend/internal/domain/ranking"
	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/internal/model"
	"github.com/pollcraft/backend/internal/repository"
	"github.com/pollcraft/backend/pkg/distlock"
	"github.com/pollcraft/backend/pkg/enum"
	"github.com/pollcraft/backend/pkg/errorx"
	"github.com/pollcraft/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ContestDomain interface {
	CreateContest(context.Context, *model.CreateContestRequest) (*model.CreateContestResponse, error)
	GetContest(context.Context, *model.GetContestRequest) (*model.GetContestResponse, error)
	Enroll(context.Context, *model.EnrollContestRequest) (*model.EnrollContestResponse, error)
	AdvancePhase(context.Context, *model.AdvanceContestPhaseRequest) (*model.AdvanceContestPhaseResponse, error)
	SubmitScore(context.Context, *model.SubmitScoreRequest) (*model.SubmitScoreResponse, error)
	Disburse(context.Context, *model.DisburseContestRequest) (*model.DisburseContestResponse, error)
	Cancel(context.Context, *model.CancelContestRequest) (*model.CancelContestResponse, error)
	GetLeaderboard(context.Context, *model.GetLeaderboardRequest) (*model.GetLeaderboardResponse, error)
}

// Forward transitions driven by AdvancePhase. Disbursement and
// cancellation have their own operations and never go through here.
var contestPhaseBefore = map[entity.ContestPhase]entity.ContestPhase{
	entity.ContestEnrolling: entity.ContestUpcoming,
	entity.ContestActive:    entity.ContestEnrolling,
	entity.ContestEnded:     entity.ContestActive,
}

type contestDomain struct {
	contestRepo        repository.ContestRepository
	ledgerRepo         repository.LedgerRepository
	globalRoleVerifier *common.GlobalRoleVerifier
	leaderboard        leaderboard.Leaderboard
	locker             distlock.Locker
	notifier           notification.Notifier
}

func NewContestDomain(
	contestRepo repository.ContestRepository,
	ledgerRepo repository.LedgerRepository,
	globalRoleVerifier *common.GlobalRoleVerifier,
	leaderboard leaderboard.Leaderboard,
	locker distlock.Locker,
	notifier notification.Notifier,
) *contestDomain {
	return &contestDomain{
		contestRepo:        contestRepo,
		ledgerRepo:         ledgerRepo,
		globalRoleVerifier: globalRoleVerifier,
		leaderboard:        leaderboard,
		locker:             locker,
		notifier:           notifier,
	}
}

func (d *contestDomain) CreateContest(
	ctx context.Context, req *model.CreateContestRequest,
) (*model.CreateContestResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty title")
	}

	if !req.StartTime.Before(req.EndTime) {
		return nil, errorx.New(errorx.BadRequest, "Invalid contest time")
	}

	if req.NumWinners <= 0 {
		return nil, errorx.New(errorx.BadRequest, "The number of winners must be a positive number")
	}

	// The payout structure may still be a draft here. Completeness
	// against the number of winners is only enforced at disbursement.
	totalPercentage := 0
	for i, share := range req.PayoutStructure {
		if share.Rank <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Invalid rank of share %d", i+1)
		}

		if share.Percentage <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Invalid percentage of share %d", i+1)
		}

		totalPercentage += share.Percentage
	}

	if totalPercentage > 100 {
		return nil, errorx.New(errorx.BadRequest, "Total percentage must not exceed 100")
	}

	payoutStructure := make(entity.Array[entity.PayoutShare], 0, len(req.PayoutStructure))
	for _, share := range req.PayoutStructure {
		payoutStructure = append(payoutStructure, entity.PayoutShare{
			Rank:       share.Rank,
			Percentage: share.Percentage,
		})
	}

	contest := &entity.Contest{
		Base:            entity.Base{ID: uuid.NewString()},
		Title:           req.Title,
		GameID:          req.GameID,
		CreatedBy:       xcontext.RequestUserID(ctx),
		EntryFee:        req.EntryFee,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		PrizePool:       req.PrizePool,
		PrizeCurrency:   req.PrizeCurrency,
		NumWinners:      req.NumWinners,
		PayoutStructure: payoutStructure,
		Phase:           entity.ContestUpcoming,
	}

	if err := d.contestRepo.Create(ctx, contest); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create contest: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateContestResponse{ID: contest.ID}, nil
}

func (d *contestDomain) GetContest(
	ctx context.Context, req *model.GetContestRequest,
) (*model.GetContestResponse, error) {
	contest, err := d.contestRepo.GetByID(ctx, req.ContestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found contest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get contest: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetContestResponse{Contest: model.ConvertContest(contest)}, nil
}

func (d *contestDomain) Enroll(
	ctx context.Context, req *model.EnrollContestRequest,
) (*model.EnrollContestResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	contest, err := d.contestRepo.GetByID(ctx, req.ContestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found contest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get contest: %v", err)
		return nil, errorx.Unknown
	}

	if contest.Phase != entity.ContestEnrolling {
		return nil, errorx.New(errorx.InvalidContestState,
			"Contest is %s, enrollment needs %s", contest.Phase, entity.ContestEnrolling)
	}

	enrollment := &entity.ContestEnrollment{
		Base:      entity.Base{ID: uuid.NewString()},
		ContestID: contest.ID,
		UserID:    userID,
	}

	var phaseMoved bool
	func() {
		ctx = xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(ctx)

		if err = d.contestRepo.CreateEnrollment(ctx, enrollment); err != nil {
			return
		}

		// Guarded on the phase and run even for free contests: the
		// contest row update serializes this transaction against a
		// concurrent phase flip, so an enrollment can never commit into
		// a contest that stopped enrolling.
		err = d.contestRepo.IncreaseCollectedFees(
			ctx, contest.ID, entity.ContestEnrolling, contest.EntryFee)
		if err != nil {
			phaseMoved = errors.Is(err, gorm.ErrRecordNotFound)
			return
		}

		if contest.EntryFee > 0 {
			// A failed debit rolls the enrollment back with it.
			err = d.ledgerRepo.Debit(ctx, userID, contest.EntryFee, entity.LedgerEntryFee, contest.ID)
			if err != nil {
				return
			}
		}

		ctx = xcontext.WithCommitDBTransaction(ctx)
	}()

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errorx.New(errorx.AlreadyEnrolled, "You have already enrolled in this contest")
		}

		if phaseMoved {
			return nil, errorx.New(errorx.InvalidContestState,
				"Contest is no longer %s", entity.ContestEnrolling)
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InsufficientFunds,
				"Not enough points to pay the entry fee of %d", contest.EntryFee)
		}

		xcontext.Logger(ctx).Errorf("Cannot enroll in contest: %v", err)
		return nil, errorx.Unknown
	}

	contest, err = d.contestRepo.GetByID(ctx, contest.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload contest: %v", err)
		return nil, errorx.Unknown
	}

	d.notifier.Emit(ctx, event.New(
		&event.EnrollmentCreatedEvent{
			ContestID:     contest.ID,
			UserID:        userID,
			CollectedFees: contest.CollectedFees,
		},
		event.Metadata{Channel: contest.ID},
	))

	return &model.EnrollContestResponse{EnrollmentID: enrollment.ID}, nil
}

func (d *contestDomain) AdvancePhase(
	ctx context.Context, req *model.AdvanceContestPhaseRequest,
) (*model.AdvanceContestPhaseResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	target, err := enum.ToEnum[entity.ContestPhase](req.TargetPhase)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid phase %s", req.TargetPhase)
	}

	from, ok := contestPhaseBefore[target]
	if !ok {
		return nil, errorx.New(errorx.InvalidContestState, "Cannot advance to %s", target)
	}

	if err := d.advancePhase(ctx, req.ContestID, from, target); err != nil {
		return nil, err
	}

	return &model.AdvanceContestPhaseResponse{Phase: string(target)}, nil
}

// advancePhase performs a single guarded transition. The conditional
// update is the arbiter when several callers race; every loser gets an
// error built from a fresh read of the contest.
func (d *contestDomain) advancePhase(
	ctx context.Context, contestID string, from, to entity.ContestPhase,
) error {
	err := d.contestRepo.UpdatePhase(ctx, contestID, from, to)
	if err == nil {
		d.notifier.Emit(ctx, event.New(
			&event.ContestPhaseChangedEvent{
				ContestID: contestID,
				OldPhase:  string(from),
				NewPhase:  string(to),
			},
			event.Metadata{Channel: contestID},
		))

		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot update contest phase: %v", err)
		return errorx.Unknown
	}

	contest, err := d.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found contest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get contest: %v", err)
		return errorx.Unknown
	}

	return errorx.New(errorx.InvalidContestState,
		"Contest is %s, cannot advance to %s", contest.Phase, to)
}

func (d *contestDomain) SubmitScore(
	ctx context.Context, req *model.SubmitScoreRequest,
) (*model.SubmitScoreResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	var result struct {
		UserID string `mapstructure:"user_id"`
		Score  uint64 `mapstructure:"score"`
	}

	if err := mapstructure.Decode(req.Data, &result); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot decode score payload: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid score payload")
	}

	if result.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Score payload needs a user_id")
	}

	contest, err := d.contestRepo.GetByID(ctx, req.ContestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found contest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get contest: %v", err)
		return nil, errorx.Unknown
	}

	// Scores are frozen outside of the active phase.
	if contest.Phase != entity.ContestActive {
		return nil, errorx.New(errorx.InvalidContestState,
			"Contest is %s, scoring needs %s", contest.Phase, entity.ContestActive)
	}

	err = d.contestRepo.SetFinalScore(ctx, contest.ID, result.UserID, result.Score)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The update is guarded on the phase, so a fresh read tells
			// whether the contest moved on or the enrollment is missing.
			fresh, rerr := d.contestRepo.GetByID(ctx, contest.ID)
			if rerr == nil && fresh.Phase != entity.ContestActive {
				return nil, errorx.New(errorx.InvalidContestState,
					"Contest is %s, scoring needs %s", fresh.Phase, entity.ContestActive)
			}

			return nil, errorx.New(errorx.NotFound, "Not found enrollment")
		}

		xcontext.Logger(ctx).Errorf("Cannot set final score: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.leaderboard.ChangeScore(ctx, contest.ID, result.UserID, result.Score); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot update live leaderboard: %v", err)
	}

	return &model.SubmitScoreResponse{}, nil
}

func (d *contestDomain) Disburse(
	ctx context.Context, req *model.DisburseContestRequest,
) (*model.DisburseContestResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	var resp *model.DisburseContestResponse
	err := d.locker.WithLock(ctx, fmt.Sprintf("disburse:%s", req.ContestID), func() error {
		var err error
		resp, err = d.disburse(ctx, req.ContestID)
		return err
	})
	if err != nil {
		var errx errorx.Error
		if errors.As(err, &errx) {
			return nil, errx
		}

		xcontext.Logger(ctx).Errorf("Cannot acquire disburse lock: %v", err)
		return nil, errorx.New(errorx.TooManyRequests, "Another disbursement is in progress")
	}

	return resp, nil
}

// disburse runs under the distributed lock. The lock only serializes
// well-behaved peers; the ended to disbursed guarded update is what makes
// a double payout impossible.
func (d *contestDomain) disburse(
	ctx context.Context, contestID string,
) (*model.DisburseContestResponse, error) {
	contest, err := d.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found contest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get contest: %v", err)
		return nil, errorx.Unknown
	}

	if contest.Phase == entity.ContestDisbursed {
		return nil, errorx.New(errorx.AlreadyDisbursed, "Contest has already been disbursed")
	}

	if contest.Phase != entity.ContestEnded {
		return nil, errorx.New(errorx.InvalidContestState,
			"Contest is %s, disbursement needs %s", contest.Phase, entity.ContestEnded)
	}

	// The structure must define every rank from 1 to the number of
	// winners before any point moves. The contest stays ended until the
	// structure is fixed and disbursement is requested again.
	percentageByRank := map[int]int{}
	for _, share := range contest.PayoutStructure {
		percentageByRank[share.Rank] = share.Percentage
	}

	for rank := 1; rank <= contest.NumWinners; rank++ {
		if _, ok := percentageByRank[rank]; !ok {
			return nil, errorx.New(errorx.IncompletePayoutStructure,
				"Payout structure does not define rank %d", rank)
		}
	}

	enrollments, err := d.contestRepo.GetEnrollmentsByContestID(ctx, contest.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get enrollments: %v", err)
		return nil, errorx.Unknown
	}

	winners := ranking.Top(ranking.Rank(enrollments), contest.NumWinners)

	var payouts []model.Payout
	func() {
		ctx = xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(ctx)

		// Flip the phase first so a racing peer loses here and pays
		// nothing.
		err = d.contestRepo.UpdatePhase(ctx, contest.ID, entity.ContestEnded, entity.ContestDisbursed)
		if err != nil {
			return
		}

		for _, winner := range winners {
			// Integer division floors each payout; the remainder stays
			// in the pool for audit.
			amount := contest.PrizePool * uint64(percentageByRank[winner.Rank]) / 100
			if amount == 0 {
				continue
			}

			err = d.contestRepo.CreatePayout(ctx, &entity.Payout{
				Base:      entity.Base{ID: uuid.NewString()},
				ContestID: contest.ID,
				UserID:    winner.UserID,
				Rank:      winner.Rank,
				Amount:    amount,
				Currency:  contest.PrizeCurrency,
			})
			if err != nil {
				return
			}

			err = d.ledgerRepo.Credit(ctx, winner.UserID, amount, entity.LedgerPrizePayout, contest.ID)
			if err != nil {
				return
			}

			payouts = append(payouts, model.Payout{
				UserID: winner.UserID,
				Rank:   winner.Rank,
				Amount: amount,
			})
		}

		ctx = xcontext.WithCommitDBTransaction(ctx)
	}()

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.AlreadyDisbursed, "Contest has already been disbursed")
		}

		xcontext.Logger(ctx).Errorf("Cannot disburse contest: %v", err)
		return nil, errorx.Unknown
	}

	d.notifier.Emit(ctx, event.New(
		&event.ContestDisbursedEvent{ContestID: contest.ID, Payouts: payouts},
		event.Metadata{Channel: contest.ID},
	))

	return &model.DisburseContestResponse{Payouts: payouts}, nil
}

func (d *contestDomain) Cancel(
	ctx context.Context, req *model.CancelContestRequest,
) (*model.CancelContestResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	contest, err := d.contestRepo.GetByID(ctx, req.ContestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found contest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get contest: %v", err)
		return nil, errorx.Unknown
	}

	switch contest.Phase {
	case entity.ContestUpcoming, entity.ContestEnrolling, entity.ContestActive:
	default:
		return nil, errorx.New(errorx.InvalidContestState,
			"Contest is %s, cannot cancel anymore", contest.Phase)
	}

	var refunded []model.Refund
	func() {
		ctx = xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(ctx)

		// The guarded flip makes cancellation race-safe against phase
		// advances and concurrent cancels.
		err = d.contestRepo.UpdatePhase(ctx, contest.ID, contest.Phase, entity.ContestCancelled)
		if err != nil {
			return
		}

		// Read after the flip, inside the transaction, so every
		// enrollment that beat the cancellation is refunded.
		var enrollments []entity.ContestEnrollment
		enrollments, err = d.contestRepo.GetEnrollmentsByContestID(ctx, contest.ID)
		if err != nil {
			return
		}

		if contest.EntryFee > 0 {
			// Refunds commit atomically with the phase flip, so a
			// cancelled contest never holds anyone's entry fee.
			for _, enrollment := range enrollments {
				err = d.ledgerRepo.Credit(
					ctx, enrollment.UserID, contest.EntryFee, entity.LedgerEntryRefund, contest.ID)
				if err != nil {
					return
				}

				refunded = append(refunded, model.Refund{
					UserID: enrollment.UserID,
					Amount: contest.EntryFee,
				})
			}
		}

		ctx = xcontext.WithCommitDBTransaction(ctx)
	}()

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			contest, rerr := d.contestRepo.GetByID(ctx, req.ContestID)
			if rerr != nil {
				xcontext.Logger(ctx).Errorf("Cannot reload contest: %v", rerr)
				return nil, errorx.Unknown
			}

			return nil, errorx.New(errorx.InvalidContestState,
				"Contest is %s, cannot cancel anymore", contest.Phase)
		}

		xcontext.Logger(ctx).Errorf("Cannot cancel contest: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.leaderboard.Invalidate(ctx, contest.ID); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate leaderboard: %v", err)
	}

	d.notifier.Emit(ctx, event.New(
		&event.ContestCancelledEvent{ContestID: contest.ID, Refunded: refunded},
		event.Metadata{Channel: contest.ID},
	))

	return &model.CancelContestResponse{Refunded: refunded}, nil
}

func (d *contestDomain) GetLeaderboard(
	ctx context.Context, req *model.GetLeaderboardRequest,
) (*model.GetLeaderboardResponse, error) {
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

	if _, err := d.contestRepo.GetByID(ctx, req.ContestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found contest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get contest: %v", err)
		return nil, errorx.Unknown
	}

	entries, err := d.leaderboard.GetLeaderBoard(ctx, req.ContestID, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	return &model.GetLeaderboardResponse{Leaderboard: entries}, nil
}
