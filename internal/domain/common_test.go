package domain

import (
	"github.com/pollcraft/backend/internal/common"
	"github.com/pollcraft/backend/internal/domain/leaderboard"
	"github.com/pollcraft/backend/internal/domain/notification"
	"github.com/pollcraft/backend/internal/repository"
	"github.com/pollcraft/backend/pkg/testutil"
	"github.com/pollcraft/backend/pkg/xredis"
)

func newTestNotifier() notification.Notifier {
	return notification.NewNotifier(&testutil.MockPublisher{})
}

func newTestContestDomain(redisClient xredis.Client) *contestDomain {
	if redisClient == nil {
		redisClient = &testutil.MockRedisClient{}
	}

	contestRepo := repository.NewContestRepository()
	return NewContestDomain(
		contestRepo,
		repository.NewLedgerRepository(2),
		common.NewGlobalRoleVerifier(repository.NewUserRepository()),
		leaderboard.New(contestRepo, redisClient),
		&testutil.MockLocker{},
		newTestNotifier(),
	)
}

func newTestContestDomainWithRepo(contestRepo repository.ContestRepository) *contestDomain {
	return NewContestDomain(
		contestRepo,
		repository.NewLedgerRepository(4),
		common.NewGlobalRoleVerifier(repository.NewUserRepository()),
		leaderboard.New(contestRepo, &testutil.MockRedisClient{}),
		&testutil.MockLocker{},
		newTestNotifier(),
	)
}
