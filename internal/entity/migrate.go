package entity

import (
	"context"

	"github.com/pollcraft/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Poll{},
		&PollOption{},
		&Vote{},
		&Contest{},
		&ContestEnrollment{},
		&Payout{},
		&LedgerTransaction{},
	)
}
