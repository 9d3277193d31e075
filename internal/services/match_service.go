package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tawafuqapp/tawafuq/internal/cache"
	"github.com/tawafuqapp/tawafuq/internal/eventlog"
	"github.com/tawafuqapp/tawafuq/internal/matching"
	"github.com/tawafuqapp/tawafuq/internal/models"
	pgrepo "github.com/tawafuqapp/tawafuq/internal/repositories/postgres"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

// MatchService drives every caller-facing match action. Transitions are
// validated against the stage table, then applied with a step-guarded
// conditional update. Quota enforcement is read-then-write and therefore
// best-effort under concurrent requests; the guard narrows the window but
// does not serialize counting across matches.
type MatchService interface {
	RequestView(ctx context.Context, requesterID, targetID string) (*models.Match, error)
	Approve(ctx context.Context, matchID, actorID string) (*models.Match, error)
	Reject(ctx context.Context, matchID, actorID string) (*models.Match, error)
	CancelRequest(ctx context.Context, matchID, actorID string) (*models.Match, error)
	Dislike(ctx context.Context, matchID, actorID string) (*models.Match, error)
	RequestPhotos(ctx context.Context, matchID, actorID string) (*models.Match, error)
	RequestFullData(ctx context.Context, matchID, actorID string) (*models.Match, error)
	StartChat(ctx context.Context, matchID, actorID string) (*models.Match, error)

	Get(ctx context.Context, matchID, actorID string) (*models.Match, error)
	ListMine(ctx context.Context, userID string) ([]models.Match, error)
	QuotaStatus(ctx context.Context, userID string) (viewRemaining, chatRemaining int, err error)
}

type matchService struct {
	matches pgrepo.MatchRepository
	users   pgrepo.UserRepository
	cache   cache.Cache
	events  eventlog.Recorder
	log     *logrus.Logger
}

func NewMatchService(matches pgrepo.MatchRepository, users pgrepo.UserRepository, c cache.Cache, events eventlog.Recorder, log *logrus.Logger) MatchService {
	return &matchService{matches: matches, users: users, cache: c, events: events, log: log}
}

const matchListTTL = 60 * time.Second

// statuses on which approve/reject/cancel are no longer actionable,
// independent of the step table.
func statusFrozen(s models.Status) bool {
	return s == models.StatusBlocked || s == models.StatusRejected || s == models.StatusChatting
}

func (s *matchService) RequestView(ctx context.Context, requesterID, targetID string) (*models.Match, error) {
	const op = "MatchService.RequestView"

	if requesterID == "" || targetID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "requester and target are required", nil)
	}
	if requesterID == targetID {
		return nil, utils.E(utils.CodeInvalidArgument, op, "cannot request a match with yourself", nil)
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "target user not found", err)
	}

	pairKey := matching.PairKey(requesterID, targetID)

	existing, err := s.matches.GetByPairKey(ctx, pairKey)
	switch {
	case err == nil:
		if existing.Status == models.StatusBlocked {
			return nil, utils.E(utils.CodeForbidden, op, "this match is not available", nil)
		}
		if !matching.IsAbsorbing(existing.Step) || existing.Step == models.StepChatting {
			return nil, utils.E(utils.CodeConflict, op, "an introduction between these users is already in progress", nil)
		}
		// a concluded (non-blocked) pair may be re-initiated; roles follow
		// the new requester
		now := time.Now().UTC()
		err = s.matches.UpdateTransition(ctx, existing.ID, existing.Step, map[string]any{
			"requester_id":     requesterID,
			"target_id":        targetID,
			"step":             models.StepProfileRequest,
			"status":           models.StatusPending,
			"requester_viewed": false,
			"target_viewed":    false,
			"updated_at":       now,
		})
		if err != nil {
			return nil, utils.E(utils.CodeConflict, op, "match changed concurrently, retry", err)
		}
		s.finishTransition(ctx, existing.ID, pairKey, requesterID, existing.Step, models.StepProfileRequest, requesterID, targetID)
		return s.matches.GetByID(ctx, existing.ID)

	case errors.Is(err, utils.ErrNotFound):
		now := time.Now().UTC()
		m := &models.Match{
			ID:          uuid.NewString(),
			RequesterID: requesterID,
			TargetID:    targetID,
			PairKey:     pairKey,
			Status:      models.StatusPending,
			Step:        models.StepProfileRequest,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.matches.Create(ctx, m); err != nil {
			// unique pair_key index: a concurrent request won the race
			return nil, utils.E(utils.CodeConflict, op, "an introduction between these users is already in progress", err)
		}
		s.finishTransition(ctx, m.ID, pairKey, requesterID, "", models.StepProfileRequest, requesterID, targetID)
		return m, nil

	default:
		return nil, utils.E(utils.CodeInternal, op, "failed to look up pair", err)
	}
}

func (s *matchService) Approve(ctx context.Context, matchID, actorID string) (*models.Match, error) {
	const op = "MatchService.Approve"

	m, err := s.load(ctx, op, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if statusFrozen(m.Status) {
		return nil, utils.E(utils.CodeForbidden, op, "this request is no longer actionable", nil)
	}
	if m.TargetID != actorID {
		return nil, utils.E(utils.CodeForbidden, op, "only the requested party may approve", nil)
	}

	next, ok := matching.ApproveTarget(m.Step)
	if !ok || !matching.CanTransition(m.Step, next) {
		return nil, utils.E(utils.CodeInvalidTransition, op, "nothing to approve at this stage", nil)
	}

	updates := map[string]any{
		"step":       next,
		"status":     models.StatusApproved,
		"updated_at": time.Now().UTC(),
	}

	if next == models.StepProfileViewed {
		// religion precondition, then the requester-side view quota
		if err := s.checkReligion(ctx, op, m); err != nil {
			return nil, err
		}
		count, err := s.matches.CountAtStep(ctx, m.RequesterID, models.StepProfileViewed, matching.ViewQuotaStatuses, true, m.ID)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to count view quota", err)
		}
		if matching.Exceeds(matching.ViewQuotaLimit, count, m.Step == models.StepProfileViewed) {
			return nil, utils.E(utils.CodeQuotaExceeded, op, "profile view limit reached for the requesting user", nil)
		}
		updates["target_viewed"] = true
	}

	if err := s.matches.UpdateTransition(ctx, m.ID, m.Step, updates); err != nil {
		return nil, utils.E(utils.CodeConflict, op, "match changed concurrently, retry", err)
	}
	s.finishTransition(ctx, m.ID, m.PairKey, actorID, m.Step, next, m.RequesterID, m.TargetID)
	return s.matches.GetByID(ctx, m.ID)
}

func (s *matchService) Reject(ctx context.Context, matchID, actorID string) (*models.Match, error) {
	const op = "MatchService.Reject"

	m, err := s.load(ctx, op, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if statusFrozen(m.Status) {
		return nil, utils.E(utils.CodeForbidden, op, "this request is no longer actionable", nil)
	}

	// pending requests are the target's to answer; settled stages may be
	// broken off by either party
	if matching.IsPendingRequest(m.Step) && m.TargetID != actorID {
		return nil, utils.E(utils.CodeForbidden, op, "only the requested party may reject", nil)
	}

	next, ok := matching.RejectTarget(m.Step)
	if !ok || !matching.CanTransition(m.Step, next) {
		return nil, utils.E(utils.CodeInvalidTransition, op, "nothing to reject at this stage", nil)
	}

	err = s.matches.UpdateTransition(ctx, m.ID, m.Step, map[string]any{
		"step":       next,
		"status":     models.StatusRejected,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, utils.E(utils.CodeConflict, op, "match changed concurrently, retry", err)
	}
	s.finishTransition(ctx, m.ID, m.PairKey, actorID, m.Step, next, m.RequesterID, m.TargetID)
	return s.matches.GetByID(ctx, m.ID)
}

func (s *matchService) CancelRequest(ctx context.Context, matchID, actorID string) (*models.Match, error) {
	const op = "MatchService.CancelRequest"

	m, err := s.load(ctx, op, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if m.RequesterID != actorID {
		return nil, utils.E(utils.CodeForbidden, op, "only the requester may cancel", nil)
	}
	// cancellation is only legal while the view request is still pending
	if matching.Normalize(m.Step) != models.StepProfileRequest || statusFrozen(m.Status) {
		return nil, utils.E(utils.CodeInvalidTransition, op, "request can no longer be cancelled", nil)
	}

	err = s.matches.UpdateTransition(ctx, m.ID, m.Step, map[string]any{
		"step":       models.StepCancelled,
		"status":     models.StatusRejected,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, utils.E(utils.CodeConflict, op, "match changed concurrently, retry", err)
	}
	s.finishTransition(ctx, m.ID, m.PairKey, actorID, m.Step, models.StepCancelled, m.RequesterID, m.TargetID)
	return s.matches.GetByID(ctx, m.ID)
}

func (s *matchService) Dislike(ctx context.Context, matchID, actorID string) (*models.Match, error) {
	const op = "MatchService.Dislike"

	m, err := s.load(ctx, op, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if m.Status == models.StatusBlocked {
		return m, nil // already blocked, idempotent
	}

	err = s.matches.UpdateTransition(ctx, m.ID, m.Step, map[string]any{
		"step":       models.StepBlocked,
		"status":     models.StatusBlocked,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, utils.E(utils.CodeConflict, op, "match changed concurrently, retry", err)
	}
	s.finishTransition(ctx, m.ID, m.PairKey, actorID, m.Step, models.StepBlocked, m.RequesterID, m.TargetID)
	return s.matches.GetByID(ctx, m.ID)
}

func (s *matchService) RequestPhotos(ctx context.Context, matchID, actorID string) (*models.Match, error) {
	return s.requestStage(ctx, "MatchService.RequestPhotos", matchID, actorID, models.StepPhotoRequested)
}

func (s *matchService) RequestFullData(ctx context.Context, matchID, actorID string) (*models.Match, error) {
	return s.requestStage(ctx, "MatchService.RequestFullData", matchID, actorID, models.StepFullDataRequested)
}

func (s *matchService) requestStage(ctx context.Context, op, matchID, actorID string, next models.Step) (*models.Match, error) {
	m, err := s.load(ctx, op, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if statusFrozen(m.Status) {
		return nil, utils.E(utils.CodeForbidden, op, "this match is no longer actionable", nil)
	}
	if m.RequesterID != actorID {
		return nil, utils.E(utils.CodeForbidden, op, "only the requester may advance the introduction", nil)
	}
	if !matching.CanTransition(m.Step, next) {
		return nil, utils.E(utils.CodeInvalidTransition, op, "stage not reachable from the current step", nil)
	}

	err = s.matches.UpdateTransition(ctx, m.ID, m.Step, map[string]any{
		"step":       next,
		"status":     models.StatusPending,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, utils.E(utils.CodeConflict, op, "match changed concurrently, retry", err)
	}
	s.finishTransition(ctx, m.ID, m.PairKey, actorID, m.Step, next, m.RequesterID, m.TargetID)
	return s.matches.GetByID(ctx, m.ID)
}

func (s *matchService) StartChat(ctx context.Context, matchID, actorID string) (*models.Match, error) {
	const op = "MatchService.StartChat"

	m, err := s.load(ctx, op, matchID, actorID)
	if err != nil {
		return nil, err
	}
	if statusFrozen(m.Status) {
		return nil, utils.E(utils.CodeForbidden, op, "this match is no longer actionable", nil)
	}
	if !matching.CanTransition(m.Step, models.StepChatting) {
		return nil, utils.E(utils.CodeInvalidTransition, op, "chat is not reachable from the current step", nil)
	}

	// chat occupies a slot for both parties, across both roles
	already := m.Step == models.StepChatting
	for _, uid := range []string{m.RequesterID, m.TargetID} {
		count, err := s.matches.CountAtStep(ctx, uid, models.StepChatting, matching.ChatQuotaStatuses, false, m.ID)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to count chat quota", err)
		}
		if matching.Exceeds(matching.ChatQuotaLimit, count, already) {
			return nil, utils.E(utils.CodeQuotaExceeded, op, "concurrent chat limit reached", nil)
		}
	}

	err = s.matches.UpdateTransition(ctx, m.ID, m.Step, map[string]any{
		"step":       models.StepChatting,
		"status":     models.StatusChatting,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, utils.E(utils.CodeConflict, op, "match changed concurrently, retry", err)
	}
	s.finishTransition(ctx, m.ID, m.PairKey, actorID, m.Step, models.StepChatting, m.RequesterID, m.TargetID)
	return s.matches.GetByID(ctx, m.ID)
}

func (s *matchService) Get(ctx context.Context, matchID, actorID string) (*models.Match, error) {
	const op = "MatchService.Get"

	m, err := s.load(ctx, op, matchID, actorID)
	if err != nil {
		return nil, err
	}

	// the requester fetching an approved view marks their viewed flag;
	// best-effort, a lost race just leaves the flag for the next fetch
	if m.RequesterID == actorID && !m.RequesterViewed &&
		m.Step != models.StepProfileRequest && !matching.IsAbsorbing(m.Step) {
		if err := s.matches.UpdateTransition(ctx, m.ID, m.Step, map[string]any{"requester_viewed": true}); err == nil {
			m.RequesterViewed = true
		}
	}
	return m, nil
}

func (s *matchService) ListMine(ctx context.Context, userID string) ([]models.Match, error) {
	const op = "MatchService.ListMine"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	key := cache.UserMatchesKey(userID)
	if s.cache != nil {
		var cached []models.Match
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	out, err := s.matches.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list matches", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, out, matchListTTL)
	}
	return out, nil
}

func (s *matchService) QuotaStatus(ctx context.Context, userID string) (int, int, error) {
	const op = "MatchService.QuotaStatus"

	viewCount, err := s.matches.CountAtStep(ctx, userID, models.StepProfileViewed, matching.ViewQuotaStatuses, true, "")
	if err != nil {
		return 0, 0, utils.E(utils.CodeInternal, op, "failed to count view quota", err)
	}
	chatCount, err := s.matches.CountAtStep(ctx, userID, models.StepChatting, matching.ChatQuotaStatuses, false, "")
	if err != nil {
		return 0, 0, utils.E(utils.CodeInternal, op, "failed to count chat quota", err)
	}
	// the slots already held stay usable; report what is left for new moves
	return matching.Remaining(matching.ViewQuotaLimit, viewCount, true),
		matching.Remaining(matching.ChatQuotaLimit, chatCount, true),
		nil
}

// load fetches a match and authorizes the actor as one of its parties.
func (s *matchService) load(ctx context.Context, op, matchID, actorID string) (*models.Match, error) {
	if matchID == "" || actorID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "match_id and actor are required", nil)
	}
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "match not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load match", err)
	}
	if !m.HasUser(actorID) {
		return nil, utils.E(utils.CodeUnauthorized, op, "not a party to this match", nil)
	}
	return m, nil
}

// checkReligion refuses a profile-view transition when both parties declared
// a religion and the declarations differ.
func (s *matchService) checkReligion(ctx context.Context, op string, m *models.Match) error {
	requester, err := s.users.GetByID(ctx, m.RequesterID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load requester", err)
	}
	target, err := s.users.GetByID(ctx, m.TargetID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load target", err)
	}
	if requester.Religion != "" && target.Religion != "" && requester.Religion != target.Religion {
		return utils.E(utils.CodePreconditionFailed, op, "religion preferences are incompatible", nil)
	}
	return nil
}

// finishTransition records the event and drops both users' cached lists.
func (s *matchService) finishTransition(ctx context.Context, matchID, pairKey, actorID string, from, to models.Step, userA, userB string) {
	if s.events != nil {
		err := s.events.Record(ctx, eventlog.Event{
			MatchID: matchID,
			PairKey: pairKey,
			ActorID: actorID,
			From:    from,
			To:      to,
			At:      time.Now().UTC(),
		})
		if err != nil && s.log != nil {
			s.log.WithError(err).Warn("failed to record transition event")
		}
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cache.UserMatchesKey(userA), cache.UserMatchesKey(userB))
	}
}
