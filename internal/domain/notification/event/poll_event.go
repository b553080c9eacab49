package event

import "github.com/pollcraft/backend/internal/model"

// VOTE CAST EVENT
type VoteCastEvent struct {
	PollID      string              `json:"poll_id"`
	OptionIndex int                 `json:"option_index"`
	TotalVotes  uint64              `json:"total_votes"`
	Tally       []model.OptionTally `json:"tally"`
}

func (*VoteCastEvent) Op() string {
	return "vote_cast"
}
