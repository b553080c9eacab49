package event

import "github.com/pollcraft/backend/internal/model"

// ENROLLMENT CREATED EVENT
type EnrollmentCreatedEvent struct {
	ContestID     string `json:"contest_id"`
	UserID        string `json:"user_id"`
	CollectedFees uint64 `json:"collected_fees"`
}

func (*EnrollmentCreatedEvent) Op() string {
	return "enrollment_created"
}

// CONTEST PHASE CHANGED EVENT
type ContestPhaseChangedEvent struct {
	ContestID string `json:"contest_id"`
	OldPhase  string `json:"old_phase"`
	NewPhase  string `json:"new_phase"`
}

func (*ContestPhaseChangedEvent) Op() string {
	return "contest_phase_changed"
}

// CONTEST DISBURSED EVENT
type ContestDisbursedEvent struct {
	ContestID string         `json:"contest_id"`
	Payouts   []model.Payout `json:"payouts"`
}

func (*ContestDisbursedEvent) Op() string {
	return "contest_disbursed"
}

// CONTEST CANCELLED EVENT
type ContestCancelledEvent struct {
	ContestID string         `json:"contest_id"`
	Refunded  []model.Refund `json:"refunded"`
}

func (*ContestCancelledEvent) Op() string {
	return "contest_cancelled"
}
