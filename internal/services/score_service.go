package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tawafuqapp/tawafuq/internal/cache"
	"github.com/tawafuqapp/tawafuq/internal/matching"
	pgrepo "github.com/tawafuqapp/tawafuq/internal/repositories/postgres"
	"github.com/tawafuqapp/tawafuq/internal/scoring"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

// ScoreService recomputes and persists one pair's compatibility score. The
// write is last-write-wins on every match row of the pair, so duplicate or
// out-of-order job deliveries are safe to repeat.
type ScoreService interface {
	ComputePair(ctx context.Context, userAID, userBID string) (int, error)
}

type scoreService struct {
	tests   pgrepo.TestResultRepository
	matches pgrepo.MatchRepository
	cache   cache.Cache
	rdb     *redis.Client // nil disables score-update events
	log     *logrus.Logger
}

func NewScoreService(tests pgrepo.TestResultRepository, matches pgrepo.MatchRepository, c cache.Cache, rdb *redis.Client, log *logrus.Logger) ScoreService {
	return &scoreService{tests: tests, matches: matches, cache: c, rdb: rdb, log: log}
}

func (s *scoreService) ComputePair(ctx context.Context, userAID, userBID string) (int, error) {
	const op = "ScoreService.ComputePair"

	if userAID == "" || userBID == "" || userAID == userBID {
		return 0, utils.E(utils.CodeInvalidArgument, op, "two distinct user ids are required", nil)
	}

	testsA, err := s.tests.ListByUser(ctx, userAID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to load test results", err)
	}
	testsB, err := s.tests.ListByUser(ctx, userBID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to load test results", err)
	}

	pct := scoring.Score(testsA, testsB)
	pairKey := matching.PairKey(userAID, userBID)

	if err := s.matches.SetMatchPercentage(ctx, pairKey, pct); err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to persist score", err)
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, cache.UserMatchesKey(userAID), cache.UserMatchesKey(userBID))
	}
	s.publishScore(ctx, pairKey, pct, userAID, userBID)

	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"pair_key":         pairKey,
			"match_percentage": pct,
		}).Debug("compatibility score stored")
	}
	return pct, nil
}

func (s *scoreService) publishScore(ctx context.Context, pairKey string, pct int, userIDs ...string) {
	if s.rdb == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"type":             "score_updated",
		"pair_key":         pairKey,
		"match_percentage": pct,
		"at":               time.Now().UTC(),
	})
	for _, id := range userIDs {
		_ = s.rdb.Publish(ctx, "user:"+id+":matches", string(payload)).Err()
	}
}
