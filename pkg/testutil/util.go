package testutil

import (
	"context"
	"time"

	"github.com/pollcraft/backend/config"
	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/pkg/logger"
	"github.com/pollcraft/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	// A single connection keeps every caller on the same in-memory
	// database and serializes concurrent writers.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Configs{
		Env: "test",
		ApiServer: config.ServerConfigs{
			MaxLimit:     50,
			DefaultLimit: 10,
		},
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: config.Duration(time.Minute),
			},
		},
		Kafka: config.KafkaConfigs{
			EventTopic: "events",
		},
		Poll: config.PollConfigs{
			VoteReward:    10,
			TallyCacheTTL: config.Duration(time.Minute),
		},
		Contest: config.ContestConfigs{
			EnrollmentWindow:   config.Duration(time.Hour),
			DisburseLockExpiry: config.Duration(time.Minute),
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = MockContext()
	}

	return xcontext.WithRequestUserID(ctx, userID)
}
