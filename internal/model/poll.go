package model

import "time"

type OptionTally struct {
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Votes      uint64  `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type Poll struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Category   string        `json:"category"`
	CreatedBy  string        `json:"created_by"`
	StartTime  string        `json:"start_time,omitempty"`
	EndTime    string        `json:"end_time,omitempty"`
	TotalVotes uint64        `json:"total_votes"`
	Options    []OptionTally `json:"options"`
}

type CreatePollRequest struct {
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Options   []string   `json:"options"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type CreatePollResponse struct {
	ID string `json:"id"`
}

type GetPollsRequest struct {
	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetPollsResponse struct {
	Polls []Poll `json:"polls"`
}

type GetPollRequest struct {
	PollID string `json:"poll_id" form:"poll_id"`
}

type GetPollResponse struct {
	Poll Poll `json:"poll"`
}

type GetPollResultsRequest struct {
	PollID string `json:"poll_id" form:"poll_id"`
}

type GetPollResultsResponse struct {
	TotalVotes uint64        `json:"total_votes"`
	Tally      []OptionTally `json:"tally"`
}

type CastVoteRequest struct {
	PollID      string `json:"poll_id"`
	OptionIndex int    `json:"option_index"`
}

type CastVoteResponse struct {
	Tally         []OptionTally `json:"tally"`
	TotalVotes    uint64        `json:"total_votes"`
	PointsAwarded uint64        `json:"points_awarded"`
}
