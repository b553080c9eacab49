package entity

import (
	"time"

	"github.com/pollcraft/backend/pkg/enum"
)

type ContestPhase string

var (
	ContestUpcoming  = enum.New(ContestPhase("upcoming"))
	ContestEnrolling = enum.New(ContestPhase("enrolling"))
	ContestActive    = enum.New(ContestPhase("active"))
	ContestEnded     = enum.New(ContestPhase("ended"))
	ContestDisbursed = enum.New(ContestPhase("disbursed"))
	ContestCancelled = enum.New(ContestPhase("cancelled"))
)

// PayoutShare maps a finishing rank to its percentage of the prize pool.
type PayoutShare struct {
	Rank       int `json:"rank"`
	Percentage int `json:"percentage"`
}

type Contest struct {
	Base

	Title  string
	GameID string

	CreatedBy string
	Creator   User `gorm:"foreignKey:CreatedBy"`

	EntryFee  uint64
	StartTime time.Time
	EndTime   time.Time

	PrizePool       uint64
	PrizeCurrency   string
	NumWinners      int
	PayoutStructure Array[PayoutShare]

	Phase ContestPhase

	// CollectedFees tracks entry fees escrowed into the pool for audit.
	CollectedFees uint64
}

type ContestEnrollment struct {
	Base

	ContestID string  `gorm:"uniqueIndex:idx_enrollments_contest_user"`
	Contest   Contest `gorm:"foreignKey:ContestID"`

	UserID string `gorm:"uniqueIndex:idx_enrollments_contest_user"`
	User   User   `gorm:"foreignKey:UserID"`

	// FinalScore is reported by the trivia subsystem while the contest
	// is active and becomes immutable once it ends.
	FinalScore uint64
	Scored     bool
}

type Payout struct {
	Base

	ContestID string  `gorm:"index"`
	Contest   Contest `gorm:"foreignKey:ContestID"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	Rank     int
	Amount   uint64
	Currency string
}
