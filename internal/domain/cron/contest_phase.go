package cron

import (
	"context"
	"errors"
	"time"

	"github.com/pollcraft/backend/internal/domain/notification"
	"github.com/pollcraft/backend/internal/domain/notification/event"
	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/internal/repository"
	"github.com/pollcraft/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// ContestPhaseCronJob drives the scheduled part of the contest lifecycle
// by wall clock. Each transition reuses the guarded phase update, so a
// concurrent admin call or a second instance of this job is harmless.
type ContestPhaseCronJob struct {
	contestRepo repository.ContestRepository
	notifier    notification.Notifier
}

func NewContestPhaseCronJob(
	contestRepo repository.ContestRepository,
	notifier notification.Notifier,
) *ContestPhaseCronJob {
	return &ContestPhaseCronJob{contestRepo: contestRepo, notifier: notifier}
}

func (job *ContestPhaseCronJob) Do(ctx context.Context) {
	contests, err := job.contestRepo.GetByPhase(ctx,
		entity.ContestUpcoming, entity.ContestEnrolling, entity.ContestActive)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get scheduled contests: %v", err)
		return
	}

	now := time.Now()
	enrollmentWindow := xcontext.Configs(ctx).Contest.EnrollmentWindow.Std()

	for _, contest := range contests {
		switch contest.Phase {
		case entity.ContestUpcoming:
			if !now.Before(contest.StartTime.Add(-enrollmentWindow)) {
				job.advance(ctx, contest.ID, entity.ContestUpcoming, entity.ContestEnrolling)
			}

		case entity.ContestEnrolling:
			if !now.Before(contest.StartTime) {
				job.advance(ctx, contest.ID, entity.ContestEnrolling, entity.ContestActive)
			}

		case entity.ContestActive:
			if !now.Before(contest.EndTime) {
				job.advance(ctx, contest.ID, entity.ContestActive, entity.ContestEnded)
			}
		}
	}
}

func (job *ContestPhaseCronJob) advance(
	ctx context.Context, contestID string, from, to entity.ContestPhase,
) {
	err := job.contestRepo.UpdatePhase(ctx, contestID, from, to)
	if err != nil {
		// Losing the guarded update means someone else moved the
		// contest first.
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot advance contest %s to %s: %v", contestID, to, err)
		}

		return
	}

	job.notifier.Emit(ctx, event.New(
		&event.ContestPhaseChangedEvent{
			ContestID: contestID,
			OldPhase:  string(from),
			NewPhase:  string(to),
		},
		event.Metadata{Channel: contestID},
	))
}

func (job *ContestPhaseCronJob) RunNow() bool {
	return true
}

func (job *ContestPhaseCronJob) Next() time.Time {
	return time.Now().Add(time.Minute)
}
