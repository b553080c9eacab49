package testutil

import (
	"context"
	"time"

	"github.com/pollcraft/backend/internal/entity"
	"github.com/pollcraft/backend/internal/repository"
)

var (
	Admin = entity.User{
		Base: entity.Base{ID: "admin"},
		Name: "admin",
		Role: entity.RoleAdmin,
	}

	User1 = entity.User{
		Base: entity.Base{ID: "user1"},
		Name: "user1",
		Role: entity.RoleUser,
	}

	User2 = entity.User{
		Base: entity.Base{ID: "user2"},
		Name: "user2",
		Role: entity.RoleUser,
	}

	User3 = entity.User{
		Base: entity.Base{ID: "user3"},
		Name: "user3",
		Role: entity.RoleUser,
	}

	// PoorUser starts with fewer points than any entry fee in the
	// fixtures.
	PoorUser = entity.User{
		Base: entity.Base{ID: "poor_user"},
		Name: "poor_user",
		Role: entity.RoleUser,
	}

	StartingBalance = uint64(1000)
	PoorBalance     = uint64(50)

	Poll1 = entity.Poll{
		Base:      entity.Base{ID: "poll1"},
		Title:     "Which option do you prefer?",
		Category:  "general",
		CreatedBy: Admin.ID,
	}

	Poll1Options = []entity.PollOption{
		{
			Base:        entity.Base{ID: "poll1_option0"},
			PollID:      Poll1.ID,
			OptionIndex: 0,
			Text:        "Option A",
		},
		{
			Base:        entity.Base{ID: "poll1_option1"},
			PollID:      Poll1.ID,
			OptionIndex: 1,
			Text:        "Option B",
		},
	}

	Contest1 = entity.Contest{
		Base:          entity.Base{ID: "contest1"},
		Title:         "Weekly Trivia",
		GameID:        "trivia",
		CreatedBy:     Admin.ID,
		EntryFee:      100,
		StartTime:     time.Now().Add(time.Hour),
		EndTime:       time.Now().Add(2 * time.Hour),
		PrizePool:     1000,
		PrizeCurrency: "points",
		NumWinners:    3,
		PayoutStructure: entity.Array[entity.PayoutShare]{
			{Rank: 1, Percentage: 50},
			{Rank: 2, Percentage: 30},
			{Rank: 3, Percentage: 20},
		},
		Phase: entity.ContestEnrolling,
	}
)

// CreateFixtureDb inserts the sample rows above. Balances are seeded
// through the ledger so the balance equals the sum of transaction deltas
// from the very first row.
func CreateFixtureDb(ctx context.Context) {
	userRepo := repository.NewUserRepository()
	pollRepo := repository.NewPollRepository()
	contestRepo := repository.NewContestRepository()
	ledgerRepo := repository.NewLedgerRepository(1)

	for _, user := range []entity.User{Admin, User1, User2, User3, PoorUser} {
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}

	for _, user := range []entity.User{User1, User2, User3} {
		err := ledgerRepo.Credit(ctx, user.ID, StartingBalance, entity.LedgerGrant, "fixture")
		if err != nil {
			panic(err)
		}
	}

	if err := ledgerRepo.Credit(ctx, PoorUser.ID, PoorBalance, entity.LedgerGrant, "fixture"); err != nil {
		panic(err)
	}

	poll := Poll1
	options := make([]entity.PollOption, len(Poll1Options))
	copy(options, Poll1Options)
	if err := pollRepo.Create(ctx, &poll, options); err != nil {
		panic(err)
	}

	contest := Contest1
	if err := contestRepo.Create(ctx, &contest); err != nil {
		panic(err)
	}
}
