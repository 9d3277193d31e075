package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/queue"
	pgrepo "github.com/tawafuqapp/tawafuq/internal/repositories/postgres"
	"github.com/tawafuqapp/tawafuq/internal/scoring"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

type CompatibilityService interface {
	// OnTestResultsChanged recomputes the user's trait vector wholesale, then
	// enqueues one pair job per distinct match counterpart. Never a job per
	// match row: a user may hold several rows against the same counterpart.
	OnTestResultsChanged(ctx context.Context, userID string) error

	// Suggestions returns nearest users by trait-vector distance, excluding
	// existing counterparts and religion-incompatible profiles.
	Suggestions(ctx context.Context, userID string, limit int) ([]models.User, error)

	// RescoreAll walks every user and enqueues a user job for each. Returns
	// the number of jobs submitted.
	RescoreAll(ctx context.Context) (int, error)

	// Traits returns the user's current trait vector, or a precondition
	// error when none has been computed yet.
	Traits(ctx context.Context, userID string) (*TraitProfile, error)
}

// TraitProfile is a user's computed trait vector with its provenance.
type TraitProfile struct {
	Traits        scoring.TraitVector `json:"traits"`
	EngineVersion int                 `json:"engine_version"`
	ComputedAt    time.Time           `json:"computed_at"`
}

type compatibilityService struct {
	users      pgrepo.UserRepository
	tests      pgrepo.TestResultRepository
	matches    pgrepo.MatchRepository
	dispatcher queue.Dispatcher
	log        *logrus.Logger
}

func NewCompatibilityService(users pgrepo.UserRepository, tests pgrepo.TestResultRepository, matches pgrepo.MatchRepository, dispatcher queue.Dispatcher, log *logrus.Logger) CompatibilityService {
	return &compatibilityService{users: users, tests: tests, matches: matches, dispatcher: dispatcher, log: log}
}

func (s *compatibilityService) OnTestResultsChanged(ctx context.Context, userID string) error {
	const op = "CompatibilityService.OnTestResultsChanged"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	results, err := s.tests.ListByUser(ctx, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load test results", err)
	}

	vec := scoring.ExtractTraits(results)
	if err := s.users.SaveTraits(ctx, userID, vec, time.Now().UTC()); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save trait vector", err)
	}

	counterparts, err := s.matches.DistinctCounterparts(ctx, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to list counterparts", err)
	}

	for _, cp := range counterparts {
		if cp == "" || cp == userID {
			continue
		}
		if err := s.dispatcher.EnqueuePair(ctx, userID, cp); err != nil {
			return err
		}
	}

	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"user_id":      userID,
			"counterparts": len(counterparts),
		}).Info("trait vector recomputed, pair jobs dispatched")
	}
	return nil
}

func (s *compatibilityService) Suggestions(ctx context.Context, userID string, limit int) ([]models.User, error) {
	const op = "CompatibilityService.Suggestions"

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
	}
	if u.TraitsComputedAt == nil {
		return nil, utils.E(utils.CodePreconditionFailed, op, "complete a psychometric test before requesting suggestions", nil)
	}

	exclude, err := s.matches.DistinctCounterparts(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list counterparts", err)
	}
	exclude = append(exclude, userID)

	out, err := s.users.NearestByTraits(ctx, u.TraitEmbedding, exclude, u.Religion, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to query suggestions", err)
	}
	return out, nil
}

func (s *compatibilityService) Traits(ctx context.Context, userID string) (*TraitProfile, error) {
	const op = "CompatibilityService.Traits"

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
	}
	if u.TraitsComputedAt == nil {
		return nil, utils.E(utils.CodePreconditionFailed, op, "no trait vector computed yet", nil)
	}

	return &TraitProfile{
		Traits: scoring.TraitVector{
			Dominance:          u.TraitDominance,
			Stability:          u.TraitStability,
			Empathy:            u.TraitEmpathy,
			Logic:              u.TraitLogic,
			Religiosity:        u.TraitReligiosity,
			ConflictStyle:      u.TraitConflictStyle,
			AttachmentSecurity: u.TraitAttachmentSecurity,
			Ambition:           u.TraitAmbition,
		},
		EngineVersion: u.TraitsEngineVersion,
		ComputedAt:    *u.TraitsComputedAt,
	}, nil
}

func (s *compatibilityService) RescoreAll(ctx context.Context) (int, error) {
	const op = "CompatibilityService.RescoreAll"

	submitted := 0
	cursor := ""
	for {
		ids, err := s.users.ListIDs(ctx, cursor, 500)
		if err != nil {
			return submitted, utils.E(utils.CodeInternal, op, "failed to scan users", err)
		}
		if len(ids) == 0 {
			return submitted, nil
		}
		for _, id := range ids {
			if err := s.dispatcher.EnqueueUser(ctx, id); err != nil {
				return submitted, err
			}
			submitted++
		}
		cursor = ids[len(ids)-1]
	}
}
