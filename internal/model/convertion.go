package model

import (
	"database/sql"
	"time"

	"github.com/pollcraft/backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(DefaultTimeLayout)
}

func ConvertUser(user *entity.User) User {
	if user == nil {
		return User{}
	}

	return User{
		ID:     user.ID,
		Name:   user.Name,
		Role:   string(user.Role),
		Points: user.Points,
	}
}

// ConvertOptionTallies computes each option's share of the total. The
// tally rows are expected in option index order.
func ConvertOptionTallies(options []entity.PollOption, totalVotes uint64) []OptionTally {
	tally := []OptionTally{}
	for _, o := range options {
		percentage := float64(0)
		if totalVotes > 0 {
			percentage = float64(o.Votes) * 100 / float64(totalVotes)
		}

		tally = append(tally, OptionTally{
			Index:      o.OptionIndex,
			Text:       o.Text,
			Votes:      o.Votes,
			Percentage: percentage,
		})
	}

	return tally
}

func ConvertPoll(poll *entity.Poll, options []entity.PollOption) Poll {
	if poll == nil {
		return Poll{}
	}

	return Poll{
		ID:         poll.ID,
		Title:      poll.Title,
		Category:   poll.Category,
		CreatedBy:  poll.CreatedBy,
		StartTime:  formatNullTime(poll.StartTime),
		EndTime:    formatNullTime(poll.EndTime),
		TotalVotes: poll.TotalVotes,
		Options:    ConvertOptionTallies(options, poll.TotalVotes),
	}
}

func ConvertPayoutStructure(shares []entity.PayoutShare) []PayoutShare {
	modelShares := []PayoutShare{}
	for _, s := range shares {
		modelShares = append(modelShares, PayoutShare{Rank: s.Rank, Percentage: s.Percentage})
	}
	return modelShares
}

func ConvertContest(contest *entity.Contest) Contest {
	if contest == nil {
		return Contest{}
	}

	return Contest{
		ID:              contest.ID,
		Title:           contest.Title,
		GameID:          contest.GameID,
		EntryFee:        contest.EntryFee,
		StartTime:       contest.StartTime.Format(DefaultTimeLayout),
		EndTime:         contest.EndTime.Format(DefaultTimeLayout),
		PrizePool:       contest.PrizePool,
		PrizeCurrency:   contest.PrizeCurrency,
		NumWinners:      contest.NumWinners,
		PayoutStructure: ConvertPayoutStructure(contest.PayoutStructure),
		Phase:           string(contest.Phase),
		CollectedFees:   contest.CollectedFees,
	}
}

func ConvertLedgerTransaction(tx *entity.LedgerTransaction) LedgerTransaction {
	if tx == nil {
		return LedgerTransaction{}
	}

	return LedgerTransaction{
		ID:          tx.ID,
		CreatedAt:   tx.CreatedAt.Format(DefaultTimeLayout),
		Delta:       tx.Delta,
		Kind:        string(tx.Kind),
		ReferenceID: tx.ReferenceID,
	}
}
