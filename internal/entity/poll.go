package entity

import "database/sql"

type Poll struct {
	Base

	Title    string
	Category string

	CreatedBy string
	Creator   User `gorm:"foreignKey:CreatedBy"`

	// A null bound means the poll is open on that side.
	StartTime sql.NullTime
	EndTime   sql.NullTime

	TotalVotes uint64
}

type PollOption struct {
	Base

	PollID string `gorm:"uniqueIndex:idx_poll_options_poll_index"`
	Poll   Poll   `gorm:"foreignKey:PollID"`

	OptionIndex int `gorm:"uniqueIndex:idx_poll_options_poll_index"`
	Text        string

	// Votes never decreases while the poll is open.
	Votes uint64
}

type Vote struct {
	Base

	PollID string `gorm:"uniqueIndex:idx_votes_poll_user"`
	Poll   Poll   `gorm:"foreignKey:PollID"`

	UserID string `gorm:"uniqueIndex:idx_votes_poll_user"`
	User   User   `gorm:"foreignKey:UserID"`

	OptionIndex int
}
