package ranking

import (
	"time"

	"github.com/pollcraft/backend/internal/entity"
	"golang.org/x/exp/slices"
)

type Entry struct {
	UserID     string
	Score      uint64
	EnrolledAt time.Time
	Rank       int
}

// Rank orders enrollments by final score descending. Ties break on the
// earlier enrollment, then on user id, so repeated calls over the same
// rows always produce the same order. Ranks are dense from 1.
func Rank(enrollments []entity.ContestEnrollment) []Entry {
	entries := make([]Entry, 0, len(enrollments))
	for _, e := range enrollments {
		entries = append(entries, Entry{
			UserID:     e.UserID,
			Score:      e.FinalScore,
			EnrolledAt: e.CreatedAt,
		})
	}

	slices.SortFunc(entries, func(a, b Entry) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}

		if !a.EnrolledAt.Equal(b.EnrolledAt) {
			return a.EnrolledAt.Before(b.EnrolledAt)
		}

		return a.UserID < b.UserID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}

// Top returns the first n entries, or everything when fewer exist.
func Top(entries []Entry, n int) []Entry {
	if n >= len(entries) {
		return entries
	}

	return entries[:n]
}
