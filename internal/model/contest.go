package model

import "time"

type PayoutShare struct {
	Rank       int `json:"rank"`
	Percentage int `json:"percentage"`
}

type Contest struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	GameID          string        `json:"game_id"`
	EntryFee        uint64        `json:"entry_fee"`
	StartTime       string        `json:"start_time"`
	EndTime         string        `json:"end_time"`
	PrizePool       uint64        `json:"prize_pool"`
	PrizeCurrency   string        `json:"prize_currency"`
	NumWinners      int           `json:"num_winners"`
	PayoutStructure []PayoutShare `json:"payout_structure"`
	Phase           string        `json:"phase"`
	CollectedFees   uint64        `json:"collected_fees"`
}

type CreateContestRequest struct {
	Title           string        `json:"title"`
	GameID          string        `json:"game_id"`
	EntryFee        uint64        `json:"entry_fee"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	PrizePool       uint64        `json:"prize_pool"`
	PrizeCurrency   string        `json:"prize_currency"`
	NumWinners      int           `json:"num_winners"`
	PayoutStructure []PayoutShare `json:"payout_structure"`
}

type CreateContestResponse struct {
	ID string `json:"id"`
}

type GetContestRequest struct {
	ContestID string `json:"contest_id" form:"contest_id"`
}

type GetContestResponse struct {
	Contest Contest `json:"contest"`
}

type EnrollContestRequest struct {
	ContestID string `json:"contest_id"`
}

type EnrollContestResponse struct {
	EnrollmentID string `json:"enrollment_id"`
}

type AdvanceContestPhaseRequest struct {
	ContestID   string `json:"contest_id"`
	TargetPhase string `json:"target_phase"`
}

type AdvanceContestPhaseResponse struct {
	Phase string `json:"phase"`
}

type SubmitScoreRequest struct {
	ContestID string         `json:"contest_id"`
	Data      map[string]any `json:"data"`
}

type SubmitScoreResponse struct{}

type Payout struct {
	UserID string `json:"user_id"`
	Rank   int    `json:"rank"`
	Amount uint64 `json:"amount"`
}

type DisburseContestRequest struct {
	ContestID string `json:"contest_id"`
}

type DisburseContestResponse struct {
	Payouts []Payout `json:"payouts"`
}

type Refund struct {
	UserID string `json:"user_id"`
	Amount uint64 `json:"amount"`
}

type CancelContestRequest struct {
	ContestID string `json:"contest_id"`
}

type CancelContestResponse struct {
	Refunded []Refund `json:"refunded"`
}

type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Score  uint64 `json:"score"`
	Rank   int    `json:"rank"`
}

type GetLeaderboardRequest struct {
	ContestID string `json:"contest_id" form:"contest_id"`
	Offset    int    `json:"offset" form:"offset"`
	Limit     int    `json:"limit" form:"limit"`
}

type GetLeaderboardResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
