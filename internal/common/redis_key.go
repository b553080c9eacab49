package common

import "fmt"

func RedisKeyContestLeaderboard(contestID string) string {
	return fmt.Sprintf("leaderboard:%s", contestID)
}

func RedisKeyPollTally(pollID string) string {
	return fmt.Sprintf("polltally:%s", pollID)
}
