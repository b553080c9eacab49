package domain

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/internal/model"
	"github.com/pollcraft/backend/internal/repository"
	"github.com/pollcraft/backend/pkg/errorx"
	"github.com/pollcraft/backend/pkg/testutil"
	"github.com/pollcraft/backend/pkg/xcontext"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// contestRepoWrapper overrides selected repository calls and delegates
// the rest.
type contestRepoWrapper struct {
	repository.ContestRepository
	getByID func(ctx context.Context, contestID string) (*entity.Contest, error)
}

func (r *contestRepoWrapper) GetByID(
	ctx context.Context, contestID string,
) (*entity.Contest, error) {
	if r.getByID != nil {
		return r.getByID(ctx, contestID)
	}

	return r.ContestRepository.GetByID(ctx, contestID)
}

func requireErrorCode(t *testing.T, err error, code errorx.Code) {
	t.Helper()

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, code, errx.Code)
}

func Test_contestDomain_Enroll(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)
	ledgerRepo := repository.NewLedgerRepository(3)
	contestRepo := repository.NewContestRepository()

	resp, err := contestDomain.Enroll(
		xcontext.WithRequestUserID(ctx, testutil.User1.ID),
		&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
	)
	require.NoError(t, err)
	require.NotEmpty(t, resp.EnrollmentID)

	balance, err := ledgerRepo.Balance(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.StartingBalance-testutil.Contest1.EntryFee, balance)

	contest, err := contestRepo.GetByID(ctx, testutil.Contest1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.Contest1.EntryFee, contest.CollectedFees)

	_, err = contestDomain.Enroll(
		xcontext.WithRequestUserID(ctx, testutil.User1.ID),
		&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
	)
	requireErrorCode(t, err, errorx.AlreadyEnrolled)
}

func Test_contestDomain_Enroll_InsufficientFunds(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)

	_, err := contestDomain.Enroll(
		xcontext.WithRequestUserID(ctx, testutil.PoorUser.ID),
		&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
	)
	requireErrorCode(t, err, errorx.InsufficientFunds)

	// The failed debit rolled the enrollment back with it.
	balance, err := repository.NewLedgerRepository(3).Balance(ctx, testutil.PoorUser.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.PoorBalance, balance)

	_, err = repository.NewContestRepository().
		GetEnrollment(ctx, testutil.Contest1.ID, testutil.PoorUser.ID)
	require.Error(t, err)
}

func Test_contestDomain_Enroll_WrongPhase(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)

	upcoming := testutil.Contest1
	upcoming.ID = "upcoming_contest"
	upcoming.Phase = entity.ContestUpcoming
	require.NoError(t, repository.NewContestRepository().Create(ctx, &upcoming))

	_, err := contestDomain.Enroll(
		xcontext.WithRequestUserID(ctx, testutil.User1.ID),
		&model.EnrollContestRequest{ContestID: upcoming.ID},
	)
	requireErrorCode(t, err, errorx.InvalidContestState)
}

func Test_contestDomain_Enroll_PhaseMovedAfterRead(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestRepo := repository.NewContestRepository()

	// The domain keeps seeing an enrolling contest while the real row
	// has already been cancelled, as when a cancellation commits between
	// the phase check and the enrollment transaction.
	stale := testutil.Contest1
	contestDomain := newTestContestDomainWithRepo(&contestRepoWrapper{
		ContestRepository: contestRepo,
		getByID: func(ctx context.Context, contestID string) (*entity.Contest, error) {
			return &stale, nil
		},
	})

	require.NoError(t, contestRepo.UpdatePhase(
		ctx, testutil.Contest1.ID, entity.ContestEnrolling, entity.ContestCancelled))

	_, err := contestDomain.Enroll(
		xcontext.WithRequestUserID(ctx, testutil.User1.ID),
		&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
	)
	requireErrorCode(t, err, errorx.InvalidContestState)

	// The cancelled contest holds no enrollment and no fee.
	_, err = contestRepo.GetEnrollment(ctx, testutil.Contest1.ID, testutil.User1.ID)
	require.Error(t, err)

	balance, err := repository.NewLedgerRepository(3).Balance(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.StartingBalance, balance)

	contest, err := contestRepo.GetByID(ctx, testutil.Contest1.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(0), contest.CollectedFees)
}

func Test_contestDomain_Enroll_Concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)

	var success, alreadyEnrolled int64
	eg := errgroup.Group{}
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			_, err := contestDomain.Enroll(
				xcontext.WithRequestUserID(ctx, testutil.User3.ID),
				&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
			)
			if err == nil {
				atomic.AddInt64(&success, 1)
				return nil
			}

			var errx errorx.Error
			if errors.As(err, &errx) && errx.Code == errorx.AlreadyEnrolled {
				atomic.AddInt64(&alreadyEnrolled, 1)
				return nil
			}

			return err
		})
	}

	require.NoError(t, eg.Wait())
	require.Equal(t, int64(1), success)
	require.Equal(t, int64(7), alreadyEnrolled)

	// Exactly one fee was escrowed.
	balance, err := repository.NewLedgerRepository(3).Balance(ctx, testutil.User3.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.StartingBalance-testutil.Contest1.EntryFee, balance)

	contest, err := repository.NewContestRepository().GetByID(ctx, testutil.Contest1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.Contest1.EntryFee, contest.CollectedFees)
}

func Test_contestDomain_AdvancePhase(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)
	contestRepo := repository.NewContestRepository()

	contest := testutil.Contest1
	contest.ID = "contest2"
	contest.Phase = entity.ContestUpcoming
	require.NoError(t, contestRepo.Create(ctx, &contest))

	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)

	_, err := contestDomain.AdvancePhase(
		xcontext.WithRequestUserID(ctx, testutil.User1.ID),
		&model.AdvanceContestPhaseRequest{ContestID: contest.ID, TargetPhase: "enrolling"},
	)
	requireErrorCode(t, err, errorx.PermissionDenied)

	for _, phase := range []string{"enrolling", "active", "ended"} {
		resp, err := contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
			ContestID:   contest.ID,
			TargetPhase: phase,
		})
		require.NoError(t, err)
		require.Equal(t, phase, resp.Phase)
	}

	// Skipping backwards or out of order is rejected.
	_, err = contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   contest.ID,
		TargetPhase: "active",
	})
	requireErrorCode(t, err, errorx.InvalidContestState)

	// Disbursement and cancellation have dedicated operations.
	_, err = contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   contest.ID,
		TargetPhase: "disbursed",
	})
	requireErrorCode(t, err, errorx.InvalidContestState)

	_, err = contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   contest.ID,
		TargetPhase: "bogus",
	})
	requireErrorCode(t, err, errorx.BadRequest)
}

// setupActiveContest enrolls the three fixture users and advances the
// fixture contest to the active phase.
func setupActiveContest(t *testing.T, ctx context.Context, contestDomain ContestDomain) context.Context {
	t.Helper()

	for _, user := range []entity.User{testutil.User1, testutil.User2, testutil.User3} {
		_, err := contestDomain.Enroll(
			xcontext.WithRequestUserID(ctx, user.ID),
			&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
		)
		require.NoError(t, err)
	}

	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)
	_, err := contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   testutil.Contest1.ID,
		TargetPhase: "active",
	})
	require.NoError(t, err)

	return adminCtx
}

func submitScore(
	t *testing.T, ctx context.Context,
	contestDomain ContestDomain, userID string, score int,
) {
	t.Helper()

	_, err := contestDomain.SubmitScore(ctx, &model.SubmitScoreRequest{
		ContestID: testutil.Contest1.ID,
		Data:      map[string]any{"user_id": userID, "score": score},
	})
	require.NoError(t, err)
}

func Test_contestDomain_SubmitScore(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)

	// Scores are only accepted while the contest is active.
	_, err := contestDomain.SubmitScore(
		xcontext.WithRequestUserID(ctx, testutil.Admin.ID),
		&model.SubmitScoreRequest{
			ContestID: testutil.Contest1.ID,
			Data:      map[string]any{"user_id": testutil.User1.ID, "score": 10},
		},
	)
	requireErrorCode(t, err, errorx.InvalidContestState)

	adminCtx := setupActiveContest(t, ctx, contestDomain)
	submitScore(t, adminCtx, contestDomain, testutil.User1.ID, 120)

	enrollment, err := repository.NewContestRepository().
		GetEnrollment(ctx, testutil.Contest1.ID, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(120), enrollment.FinalScore)
	require.True(t, enrollment.Scored)

	// A later report overwrites the previous one.
	submitScore(t, adminCtx, contestDomain, testutil.User1.ID, 90)
	enrollment, err = repository.NewContestRepository().
		GetEnrollment(ctx, testutil.Contest1.ID, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(90), enrollment.FinalScore)

	_, err = contestDomain.SubmitScore(adminCtx, &model.SubmitScoreRequest{
		ContestID: testutil.Contest1.ID,
		Data:      map[string]any{"user_id": "stranger", "score": 50},
	})
	requireErrorCode(t, err, errorx.NotFound)
}

func Test_contestDomain_SubmitScore_PhaseMovedAfterRead(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestRepo := repository.NewContestRepository()
	contestDomain := newTestContestDomainWithRepo(contestRepo)

	adminCtx := setupActiveContest(t, ctx, contestDomain)
	submitScore(t, adminCtx, contestDomain, testutil.User1.ID, 120)

	active, err := contestRepo.GetByID(ctx, testutil.Contest1.ID)
	require.NoError(t, err)

	// The first read returns the contest as it was while still active;
	// the contest ends before the score lands.
	calls := 0
	staleDomain := newTestContestDomainWithRepo(&contestRepoWrapper{
		ContestRepository: contestRepo,
		getByID: func(ctx context.Context, contestID string) (*entity.Contest, error) {
			calls++
			if calls == 1 {
				return active, nil
			}

			return contestRepo.GetByID(ctx, contestID)
		},
	})

	require.NoError(t, contestRepo.UpdatePhase(
		ctx, testutil.Contest1.ID, entity.ContestActive, entity.ContestEnded))

	_, err = staleDomain.SubmitScore(adminCtx, &model.SubmitScoreRequest{
		ContestID: testutil.Contest1.ID,
		Data:      map[string]any{"user_id": testutil.User1.ID, "score": 999},
	})
	requireErrorCode(t, err, errorx.InvalidContestState)

	// The frozen score is untouched.
	enrollment, err := contestRepo.GetEnrollment(ctx, testutil.Contest1.ID, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(120), enrollment.FinalScore)
}

func Test_contestDomain_Disburse(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)
	ledgerRepo := repository.NewLedgerRepository(3)

	adminCtx := setupActiveContest(t, ctx, contestDomain)
	submitScore(t, adminCtx, contestDomain, testutil.User1.ID, 120)
	submitScore(t, adminCtx, contestDomain, testutil.User2.ID, 90)
	submitScore(t, adminCtx, contestDomain, testutil.User3.ID, 150)

	_, err := contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   testutil.Contest1.ID,
		TargetPhase: "ended",
	})
	require.NoError(t, err)

	resp, err := contestDomain.Disburse(adminCtx, &model.DisburseContestRequest{
		ContestID: testutil.Contest1.ID,
	})
	require.NoError(t, err)
	require.Equal(t, []model.Payout{
		{UserID: testutil.User3.ID, Rank: 1, Amount: 500},
		{UserID: testutil.User1.ID, Rank: 2, Amount: 300},
		{UserID: testutil.User2.ID, Rank: 3, Amount: 200},
	}, resp.Payouts)

	// Entry fee out, prize in.
	for _, c := range []struct {
		userID  string
		balance uint64
	}{
		{testutil.User3.ID, 1000 - 100 + 500},
		{testutil.User1.ID, 1000 - 100 + 300},
		{testutil.User2.ID, 1000 - 100 + 200},
	} {
		balance, err := ledgerRepo.Balance(ctx, c.userID)
		require.NoError(t, err)
		require.Equal(t, c.balance, balance)
	}

	// Disbursement happens exactly once; a repeat neither pays again nor
	// writes new ledger rows.
	_, err = contestDomain.Disburse(adminCtx, &model.DisburseContestRequest{
		ContestID: testutil.Contest1.ID,
	})
	requireErrorCode(t, err, errorx.AlreadyDisbursed)

	payoutTxs, err := ledgerRepo.GetByReference(ctx, entity.LedgerPrizePayout, testutil.Contest1.ID)
	require.NoError(t, err)
	require.Len(t, payoutTxs, 3)
}

func Test_contestDomain_Disburse_IncompletePayoutStructure(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)
	contestRepo := repository.NewContestRepository()

	contest := testutil.Contest1
	contest.ID = "incomplete_contest"
	contest.Phase = entity.ContestEnded
	contest.PayoutStructure = entity.Array[entity.PayoutShare]{
		{Rank: 1, Percentage: 50},
		{Rank: 2, Percentage: 30},
	}
	require.NoError(t, contestRepo.Create(ctx, &contest))

	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)
	_, err := contestDomain.Disburse(adminCtx, &model.DisburseContestRequest{ContestID: contest.ID})
	requireErrorCode(t, err, errorx.IncompletePayoutStructure)

	// The contest stays ended so the structure can be fixed and the
	// disbursement retried.
	reloaded, err := contestRepo.GetByID(ctx, contest.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ContestEnded, reloaded.Phase)

	payoutTxs, err := repository.NewLedgerRepository(3).
		GetByReference(ctx, entity.LedgerPrizePayout, contest.ID)
	require.NoError(t, err)
	require.Empty(t, payoutTxs)
}

func Test_contestDomain_Disburse_FewerEnrolleesThanWinners(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)
	ledgerRepo := repository.NewLedgerRepository(3)

	for _, user := range []entity.User{testutil.User1, testutil.User2} {
		_, err := contestDomain.Enroll(
			xcontext.WithRequestUserID(ctx, user.ID),
			&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
		)
		require.NoError(t, err)
	}

	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)
	_, err := contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   testutil.Contest1.ID,
		TargetPhase: "active",
	})
	require.NoError(t, err)

	submitScore(t, adminCtx, contestDomain, testutil.User1.ID, 120)
	submitScore(t, adminCtx, contestDomain, testutil.User2.ID, 90)

	_, err = contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   testutil.Contest1.ID,
		TargetPhase: "ended",
	})
	require.NoError(t, err)

	// Only the ranks with an enrollee are paid; rank 3's share stays in
	// the pool.
	resp, err := contestDomain.Disburse(adminCtx, &model.DisburseContestRequest{
		ContestID: testutil.Contest1.ID,
	})
	require.NoError(t, err)
	require.Equal(t, []model.Payout{
		{UserID: testutil.User1.ID, Rank: 1, Amount: 500},
		{UserID: testutil.User2.ID, Rank: 2, Amount: 300},
	}, resp.Payouts)

	payouts, err := repository.NewContestRepository().
		GetPayoutsByContestID(ctx, testutil.Contest1.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 2)

	balance, err := ledgerRepo.Balance(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.StartingBalance-testutil.Contest1.EntryFee+500, balance)
}

func Test_contestDomain_Disburse_TinyPool(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)
	contestRepo := repository.NewContestRepository()

	contest := testutil.Contest1
	contest.ID = "tiny_pool_contest"
	contest.EntryFee = 0
	contest.PrizePool = 3
	require.NoError(t, contestRepo.Create(ctx, &contest))

	for _, user := range []entity.User{testutil.User1, testutil.User2, testutil.User3} {
		_, err := contestDomain.Enroll(
			xcontext.WithRequestUserID(ctx, user.ID),
			&model.EnrollContestRequest{ContestID: contest.ID},
		)
		require.NoError(t, err)
	}

	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)
	_, err := contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   contest.ID,
		TargetPhase: "active",
	})
	require.NoError(t, err)

	for userID, score := range map[string]int{
		testutil.User1.ID: 120,
		testutil.User2.ID: 90,
		testutil.User3.ID: 150,
	} {
		_, err := contestDomain.SubmitScore(adminCtx, &model.SubmitScoreRequest{
			ContestID: contest.ID,
			Data:      map[string]any{"user_id": userID, "score": score},
		})
		require.NoError(t, err)
	}

	_, err = contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   contest.ID,
		TargetPhase: "ended",
	})
	require.NoError(t, err)

	// 3 points split 50/30/20 floors ranks 2 and 3 to zero; those ranks
	// get no payout row at all.
	resp, err := contestDomain.Disburse(adminCtx, &model.DisburseContestRequest{
		ContestID: contest.ID,
	})
	require.NoError(t, err)
	require.Equal(t, []model.Payout{
		{UserID: testutil.User3.ID, Rank: 1, Amount: 1},
	}, resp.Payouts)

	payouts, err := contestRepo.GetPayoutsByContestID(ctx, contest.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 1)

	payoutTxs, err := repository.NewLedgerRepository(3).
		GetByReference(ctx, entity.LedgerPrizePayout, contest.ID)
	require.NoError(t, err)
	require.Len(t, payoutTxs, 1)
}

func Test_contestDomain_Cancel(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)
	ledgerRepo := repository.NewLedgerRepository(3)

	for _, user := range []entity.User{testutil.User1, testutil.User2} {
		_, err := contestDomain.Enroll(
			xcontext.WithRequestUserID(ctx, user.ID),
			&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
		)
		require.NoError(t, err)
	}

	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)
	resp, err := contestDomain.Cancel(adminCtx, &model.CancelContestRequest{
		ContestID: testutil.Contest1.ID,
	})
	require.NoError(t, err)
	require.Len(t, resp.Refunded, 2)

	// Every enrollee gets the entry fee back.
	for _, user := range []entity.User{testutil.User1, testutil.User2} {
		balance, err := ledgerRepo.Balance(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, testutil.StartingBalance, balance)
	}

	contest, err := repository.NewContestRepository().GetByID(ctx, testutil.Contest1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ContestCancelled, contest.Phase)

	// Refunded total matches what was escrowed.
	refundTxs, err := ledgerRepo.GetByReference(ctx, entity.LedgerEntryRefund, testutil.Contest1.ID)
	require.NoError(t, err)
	var refundedTotal uint64
	for _, tx := range refundTxs {
		refundedTotal += uint64(tx.Delta)
	}
	require.Equal(t, contest.CollectedFees, refundedTotal)
}

func Test_contestDomain_Cancel_EnrollmentDuringCancel(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestRepo := repository.NewContestRepository()
	ledgerRepo := repository.NewLedgerRepository(3)
	enrollDomain := newTestContestDomain(nil)

	_, err := enrollDomain.Enroll(
		xcontext.WithRequestUserID(ctx, testutil.User1.ID),
		&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
	)
	require.NoError(t, err)

	// user2's enrollment commits after the cancellation has loaded the
	// contest but before the refund transaction runs. The refund list is
	// read inside that transaction, so the fee still comes back.
	var once sync.Once
	cancelDomain := newTestContestDomainWithRepo(&contestRepoWrapper{
		ContestRepository: contestRepo,
		getByID: func(c context.Context, contestID string) (*entity.Contest, error) {
			once.Do(func() {
				_, err := enrollDomain.Enroll(
					xcontext.WithRequestUserID(ctx, testutil.User2.ID),
					&model.EnrollContestRequest{ContestID: testutil.Contest1.ID},
				)
				require.NoError(t, err)
			})

			return contestRepo.GetByID(c, contestID)
		},
	})

	resp, err := cancelDomain.Cancel(
		xcontext.WithRequestUserID(ctx, testutil.Admin.ID),
		&model.CancelContestRequest{ContestID: testutil.Contest1.ID},
	)
	require.NoError(t, err)
	require.Len(t, resp.Refunded, 2)

	contest, err := contestRepo.GetByID(ctx, testutil.Contest1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ContestCancelled, contest.Phase)

	// Sum of refunds equals sum of collected entry fees.
	var refundedTotal uint64
	for _, refund := range resp.Refunded {
		refundedTotal += refund.Amount
	}
	require.Equal(t, contest.CollectedFees, refundedTotal)

	for _, user := range []entity.User{testutil.User1, testutil.User2} {
		balance, err := ledgerRepo.Balance(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, testutil.StartingBalance, balance)
	}
}

func Test_contestDomain_Cancel_AfterEnded(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)

	adminCtx := setupActiveContest(t, ctx, contestDomain)
	_, err := contestDomain.AdvancePhase(adminCtx, &model.AdvanceContestPhaseRequest{
		ContestID:   testutil.Contest1.ID,
		TargetPhase: "ended",
	})
	require.NoError(t, err)

	_, err = contestDomain.Cancel(adminCtx, &model.CancelContestRequest{
		ContestID: testutil.Contest1.ID,
	})
	requireErrorCode(t, err, errorx.InvalidContestState)
}

func Test_contestDomain_GetLeaderboard(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(&testutil.MockRedisClient{
		ExistFunc: func(ctx context.Context, key string) (bool, error) {
			return true, nil
		},
		ZRevRangeWithScoresFunc: func(ctx context.Context, key string, offset, limit int) ([]redis.Z, error) {
			return []redis.Z{
				{Member: testutil.User3.ID, Score: 150},
				{Member: testutil.User1.ID, Score: 120},
			}, nil
		},
	})

	resp, err := contestDomain.GetLeaderboard(ctx, &model.GetLeaderboardRequest{
		ContestID: testutil.Contest1.ID,
		Limit:     2,
	})
	require.NoError(t, err)
	require.Equal(t, []model.LeaderboardEntry{
		{UserID: testutil.User3.ID, Score: 150, Rank: 1},
		{UserID: testutil.User1.ID, Score: 120, Rank: 2},
	}, resp.Leaderboard)
}

func Test_contestDomain_CreateContest(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	contestDomain := newTestContestDomain(nil)

	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)
	req := &model.CreateContestRequest{
		Title:         "Spring Cup",
		GameID:        "trivia",
		EntryFee:      100,
		StartTime:     time.Now().Add(time.Hour),
		EndTime:       time.Now().Add(2 * time.Hour),
		PrizePool:     1000,
		PrizeCurrency: "points",
		NumWinners:    2,
		PayoutStructure: []model.PayoutShare{
			{Rank: 1, Percentage: 60},
			{Rank: 2, Percentage: 40},
		},
	}

	resp, err := contestDomain.CreateContest(adminCtx, req)
	require.NoError(t, err)

	getResp, err := contestDomain.GetContest(ctx, &model.GetContestRequest{ContestID: resp.ID})
	require.NoError(t, err)
	require.Equal(t, "Spring Cup", getResp.Contest.Title)
	require.Equal(t, string(entity.ContestUpcoming), getResp.Contest.Phase)
	require.Len(t, getResp.Contest.PayoutStructure, 2)

	// Over 100 percent total is rejected.
	req.PayoutStructure = []model.PayoutShare{{Rank: 1, Percentage: 80}, {Rank: 2, Percentage: 40}}
	_, err = contestDomain.CreateContest(adminCtx, req)
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = contestDomain.CreateContest(
		xcontext.WithRequestUserID(ctx, testutil.User1.ID), req)
	requireErrorCode(t, err, errorx.PermissionDenied)
}
