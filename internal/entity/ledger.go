package entity

import "github.com/pollcraft/backend/pkg/enum"

type LedgerKind string

var (
	// LedgerGrant is an administrative adjustment, also used to seed
	// balances outside of production.
	LedgerGrant = enum.New(LedgerKind("grant"))

	LedgerVoteReward  = enum.New(LedgerKind("vote_reward"))
	LedgerEntryFee    = enum.New(LedgerKind("entry_fee"))
	LedgerEntryRefund = enum.New(LedgerKind("entry_refund"))
	LedgerPrizePayout = enum.New(LedgerKind("prize_payout"))
)

// LedgerTransaction is append-only. The cached balance on User is the
// running sum of Delta over the user's transactions.
type LedgerTransaction struct {
	SnowFlakeBase

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	Delta int64
	Kind  LedgerKind

	// ReferenceID points at the poll or contest this entry came from.
	ReferenceID string `gorm:"index"`
}
