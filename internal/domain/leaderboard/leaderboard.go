package leaderboard

import (
	"context"

	"github.com/pollcraft/backend/internal/common"
	"github.com/pollcraft/backend/internal/model"
	"github.com/pollcraft/backend/internal/repository"
	"github.com/pollcraft/backend/pkg/errorx"
	"github.com/pollcraft/backend/pkg/xcontext"
	"github.com/pollcraft/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

// Leaderboard serves live contest standings from a redis sorted set,
// reloading it from the database when the key is missing. Standings here
// are advisory; final ranking at disbursement always reads the database.
type Leaderboard interface {
	GetLeaderBoard(ctx context.Context, contestID string, offset, limit int) ([]model.LeaderboardEntry, error)
	GetRank(ctx context.Context, contestID, userID string) (uint64, error)
	ChangeScore(ctx context.Context, contestID, userID string, score uint64) error
	Invalidate(ctx context.Context, contestID string) error
}

type leaderboard struct {
	contestRepo repository.ContestRepository
	redisClient xredis.Client
}

func New(contestRepo repository.ContestRepository, redisClient xredis.Client) *leaderboard {
	return &leaderboard{contestRepo: contestRepo, redisClient: redisClient}
}

func (l *leaderboard) GetLeaderBoard(
	ctx context.Context, contestID string, offset, limit int,
) ([]model.LeaderboardEntry, error) {
	key := common.RedisKeyContestLeaderboard(contestID)

	ok, err := l.redisClient.Exist(ctx, key)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call exist redis: %v", err)
		return nil, errorx.Unknown
	}

	// If the key didn't exist in redis, load it from database.
	if !ok {
		if err := l.loadLeaderboardFromDB(ctx, contestID); err != nil {
			return nil, err
		}
	}

	results, err := l.redisClient.ZRevRangeWithScores(ctx, key, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get revrange redis: %v", err)
		return nil, errorx.Unknown
	}

	entries := []model.LeaderboardEntry{}
	for i, z := range results {
		entries = append(entries, model.LeaderboardEntry{
			UserID: z.Member.(string),
			Score:  uint64(z.Score),
			Rank:   offset + i + 1,
		})
	}

	return entries, nil
}

func (l *leaderboard) GetRank(ctx context.Context, contestID, userID string) (uint64, error) {
	key := common.RedisKeyContestLeaderboard(contestID)

	ok, err := l.redisClient.Exist(ctx, key)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call exist redis: %v", err)
		return 0, errorx.Unknown
	}

	if !ok {
		if err := l.loadLeaderboardFromDB(ctx, contestID); err != nil {
			return 0, err
		}
	}

	rank, err := l.redisClient.ZRevRank(ctx, key, userID)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot get rev rank redis: %v", err)
		return 0, nil
	}

	return rank + 1, nil
}

func (l *leaderboard) ChangeScore(
	ctx context.Context, contestID, userID string, score uint64,
) error {
	key := common.RedisKeyContestLeaderboard(contestID)

	ok, err := l.redisClient.Exist(ctx, key)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call exist redis: %v", err)
		return errorx.Unknown
	}

	// If the key didn't exist in redis, no need to update.
	if !ok {
		return nil
	}

	err = l.redisClient.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: userID})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call ZAdd redis: %v", err)
	}

	return nil
}

func (l *leaderboard) Invalidate(ctx context.Context, contestID string) error {
	return l.redisClient.Del(ctx, common.RedisKeyContestLeaderboard(contestID))
}

func (l *leaderboard) loadLeaderboardFromDB(ctx context.Context, contestID string) error {
	enrollments, err := l.contestRepo.GetEnrollmentsByContestID(ctx, contestID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load enrollments: %v", err)
		return errorx.Unknown
	}

	key := common.RedisKeyContestLeaderboard(contestID)
	for _, e := range enrollments {
		if !e.Scored {
			continue
		}

		err := l.redisClient.ZAdd(ctx, key, redis.Z{
			Score:  float64(e.FinalScore),
			Member: e.UserID,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot call ZAdd redis: %v", err)
			return errorx.Unknown
		}
	}

	return nil
}
