package ranking

import (
	"testing"
	"time"

	"github.com/pollcraft/backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	enrollment := func(userID string, score uint64, enrolledAt time.Time) entity.ContestEnrollment {
		return entity.ContestEnrollment{
			Base:       entity.Base{ID: userID + "_enrollment", CreatedAt: enrolledAt},
			UserID:     userID,
			FinalScore: score,
			Scored:     true,
		}
	}

	entries := Rank([]entity.ContestEnrollment{
		enrollment("user1", 120, base),
		enrollment("user2", 90, base.Add(time.Minute)),
		enrollment("user3", 150, base.Add(2*time.Minute)),
	})

	require.Equal(t, []string{"user3", "user1", "user2"}, userIDs(entries))
	require.Equal(t, []int{1, 2, 3}, ranks(entries))
}

func TestRank_TieBreaks(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Same score: the earlier enrollment wins. Same score and time: the
	// smaller user id wins. The order never depends on input order.
	input := []entity.ContestEnrollment{
		{Base: entity.Base{ID: "e3", CreatedAt: base.Add(time.Hour)}, UserID: "zed", FinalScore: 100},
		{Base: entity.Base{ID: "e1", CreatedAt: base}, UserID: "bob", FinalScore: 100},
		{Base: entity.Base{ID: "e2", CreatedAt: base}, UserID: "ann", FinalScore: 100},
	}

	first := Rank(input)
	require.Equal(t, []string{"ann", "bob", "zed"}, userIDs(first))

	reversed := []entity.ContestEnrollment{input[2], input[0], input[1]}
	second := Rank(reversed)
	require.Equal(t, userIDs(first), userIDs(second))
}

func TestTop(t *testing.T) {
	entries := Rank([]entity.ContestEnrollment{
		{Base: entity.Base{ID: "e1"}, UserID: "user1", FinalScore: 10},
		{Base: entity.Base{ID: "e2"}, UserID: "user2", FinalScore: 20},
	})

	require.Len(t, Top(entries, 1), 1)
	require.Equal(t, "user2", Top(entries, 1)[0].UserID)
	require.Len(t, Top(entries, 5), 2)
}

func userIDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	return ids
}

func ranks(entries []Entry) []int {
	result := make([]int, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.Rank)
	}
	return result
}
