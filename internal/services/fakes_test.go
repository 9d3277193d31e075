package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/scoring"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

// fakeMatchRepo is an in-memory MatchRepository mirroring the store's
// semantics: unique live pair keys, step-guarded updates, blocked rows
// shadowing the pair.
type fakeMatchRepo struct {
	rows map[string]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{rows: map[string]*models.Match{}}
}

func (f *fakeMatchRepo) add(m models.Match) {
	cp := m
	f.rows[m.ID] = &cp
}

func (f *fakeMatchRepo) Create(_ context.Context, m *models.Match) error {
	for _, r := range f.rows {
		if r.PairKey == m.PairKey && r.Status != models.StatusBlocked {
			return errors.New("duplicate pair_key")
		}
	}
	f.add(*m)
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id string) (*models.Match, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeMatchRepo) GetByPairKey(_ context.Context, pairKey string) (*models.Match, error) {
	var best *models.Match
	for _, r := range f.rows {
		if r.PairKey != pairKey {
			continue
		}
		if r.Status == models.StatusBlocked {
			cp := *r
			return &cp, nil
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			best = r
		}
	}
	if best == nil {
		return nil, utils.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeMatchRepo) ListByUser(_ context.Context, userID string) ([]models.Match, error) {
	var out []models.Match
	for _, r := range f.rows {
		if r.HasUser(userID) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) CountAtStep(_ context.Context, userID string, step models.Step, statuses []models.Status, requesterOnly bool, excludeID string) (int64, error) {
	var n int64
	for _, r := range f.rows {
		if r.ID == excludeID || r.Step != step {
			continue
		}
		if requesterOnly {
			if r.RequesterID != userID {
				continue
			}
		} else if !r.HasUser(userID) {
			continue
		}
		for _, s := range statuses {
			if r.Status == s {
				n++
				break
			}
		}
	}
	return n, nil
}

func (f *fakeMatchRepo) UpdateTransition(_ context.Context, id string, fromStep models.Step, updates map[string]any) error {
	r, ok := f.rows[id]
	if !ok || r.Step != fromStep {
		return utils.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "requester_id":
			r.RequesterID = v.(string)
		case "target_id":
			r.TargetID = v.(string)
		case "step":
			r.Step = v.(models.Step)
		case "status":
			r.Status = v.(models.Status)
		case "requester_viewed":
			r.RequesterViewed = v.(bool)
		case "target_viewed":
			r.TargetViewed = v.(bool)
		case "updated_at":
			r.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func (f *fakeMatchRepo) SetMatchPercentage(_ context.Context, pairKey string, pct int) error {
	for _, r := range f.rows {
		if r.PairKey == pairKey {
			p := pct
			r.MatchPercentage = &p
		}
	}
	return nil
}

func (f *fakeMatchRepo) DistinctCounterparts(_ context.Context, userID string) ([]string, error) {
	seen := map[string]bool{}
	for _, r := range f.rows {
		if !r.HasUser(userID) {
			continue
		}
		if cp, ok := r.CounterpartOf(userID); ok {
			seen[cp] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

type savedTraits struct {
	userID string
	vec    scoring.TraitVector
}

type fakeUserRepo struct {
	users   map[string]*models.User
	saved   []savedTraits
	nearest []models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) SaveTraits(_ context.Context, userID string, v scoring.TraitVector, computedAt time.Time) error {
	u, ok := f.users[userID]
	if !ok {
		return utils.ErrNotFound
	}
	at := computedAt
	u.TraitsComputedAt = &at
	u.TraitEmbedding = v.Embedding()
	f.saved = append(f.saved, savedTraits{userID: userID, vec: v})
	return nil
}

func (f *fakeUserRepo) NearestByTraits(_ context.Context, _ pgvector.Vector, excludeIDs []string, _ string, limit int) ([]models.User, error) {
	excluded := map[string]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []models.User
	for _, u := range f.nearest {
		if excluded[u.ID] {
			continue
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListIDs(_ context.Context, cursor string, limit int) ([]string, error) {
	var ids []string
	for id := range f.users {
		if id > cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeTestResultRepo struct {
	byUser map[string][]models.TestResult
}

func newFakeTestResultRepo() *fakeTestResultRepo {
	return &fakeTestResultRepo{byUser: map[string][]models.TestResult{}}
}

func (f *fakeTestResultRepo) Insert(_ context.Context, r *models.TestResult) error {
	f.byUser[r.UserID] = append(f.byUser[r.UserID], *r)
	return nil
}

func (f *fakeTestResultRepo) ListByUser(_ context.Context, userID string) ([]models.TestResult, error) {
	return f.byUser[userID], nil
}

type pairJob struct{ a, b string }

type fakeDispatcher struct {
	pairs []pairJob
	users []string
	fail  error
}

func (f *fakeDispatcher) EnqueuePair(_ context.Context, a, b string) error {
	if f.fail != nil {
		return f.fail
	}
	f.pairs = append(f.pairs, pairJob{a: a, b: b})
	return nil
}

func (f *fakeDispatcher) EnqueueUser(_ context.Context, userID string) error {
	if f.fail != nil {
		return f.fail
	}
	f.users = append(f.users, userID)
	return nil
}
