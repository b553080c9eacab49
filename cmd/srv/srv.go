package main

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/pollcraft/backend/config"
	"github.com/pollcraft/backend/internal/common"
	"github.com/pollcraft/backend/internal/domain"
	"github.com/pollcraft/backend/internal/domain/leaderboard"
	"github.com/pollcraft/backend/internal/domain/notification"
	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/internal/repository"
	"github.com/pollcraft/backend/pkg/distlock"
	"github.com/pollcraft/backend/pkg/kafka"
	"github.com/pollcraft/backend/pkg/logger"
	"github.com/pollcraft/backend/pkg/pubsub"
	"github.com/pollcraft/backend/pkg/router"
	"github.com/pollcraft/backend/pkg/ws"
	"github.com/pollcraft/backend/pkg/xcontext"
	"github.com/pollcraft/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	userRepo    repository.UserRepository
	pollRepo    repository.PollRepository
	contestRepo repository.ContestRepository
	ledgerRepo  repository.LedgerRepository

	pollDomain    domain.PollDomain
	contestDomain domain.ContestDomain
	ledgerDomain  domain.LedgerDomain

	notifier    notification.Notifier
	leaderboard leaderboard.Leaderboard

	redisClient xredis.Client
	locker      distlock.Locker
	publisher   pubsub.Publisher
	subscriber  pubsub.Subscriber
	hub         *ws.Hub

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig(cctx *cli.Context) {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithConfigs(context.Background(), cfg)
}

func (s *srv) loadLogger() {
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(xcontext.Configs(s.ctx).LogLevel))
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database
	db, err := gorm.Open(mysql.Open(cfg.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) loadDatabase() {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	redisClient, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = redisClient
	s.locker = distlock.NewRedsyncLocker(
		redisClient.Redis(),
		xcontext.Configs(s.ctx).Contest.DisburseLockExpiry.Std(),
	)
}

func (s *srv) loadPublisher() {
	cfg := xcontext.Configs(s.ctx).Kafka
	s.publisher = kafka.NewPublisher(uuid.NewString(), []string{cfg.Addr})
	s.notifier = notification.NewNotifier(s.publisher)
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.pollRepo = repository.NewPollRepository()
	s.contestRepo = repository.NewContestRepository()
	s.ledgerRepo = repository.NewLedgerRepository(1)
}

func (s *srv) loadDomains() {
	globalRoleVerifier := common.NewGlobalRoleVerifier(s.userRepo)
	s.leaderboard = leaderboard.New(s.contestRepo, s.redisClient)

	s.pollDomain = domain.NewPollDomain(
		s.pollRepo, s.ledgerRepo, globalRoleVerifier, s.redisClient, s.notifier)
	s.contestDomain = domain.NewContestDomain(
		s.contestRepo, s.ledgerRepo, globalRoleVerifier, s.leaderboard, s.locker, s.notifier)
	s.ledgerDomain = domain.NewLedgerDomain(s.ledgerRepo)
}
