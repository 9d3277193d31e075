package postgres

import (
	"context"
	"errors"

	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/utils"
	"gorm.io/gorm"
)

type MatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	GetByPairKey(ctx context.Context, pairKey string) (*models.Match, error)
	ListByUser(ctx context.Context, userID string) ([]models.Match, error)

	// CountAtStep counts a user's matches occupying a quota-constrained step.
	// requesterOnly restricts to matches where the user is the requester;
	// excludeID keeps the match under evaluation out of its own count.
	CountAtStep(ctx context.Context, userID string, step models.Step, statuses []models.Status, requesterOnly bool, excludeID string) (int64, error)

	// UpdateTransition applies a step/status change guarded on the step the
	// caller read, narrowing the read-then-write race window. Returns
	// utils.ErrNotFound when the guard misses.
	UpdateTransition(ctx context.Context, id string, fromStep models.Step, updates map[string]any) error

	// SetMatchPercentage stamps a freshly computed score on every match row
	// of the pair. Last write wins.
	SetMatchPercentage(ctx context.Context, pairKey string, pct int) error

	// DistinctCounterparts enumerates every distinct user the given user has
	// a match with, across both roles.
	DistinctCounterparts(ctx context.Context, userID string) ([]string, error)
}

type matchRepo struct {
	db *gorm.DB
}

func NewMatchRepo(db *gorm.DB) MatchRepository {
	return &matchRepo{db: db}
}

func (r *matchRepo) Create(ctx context.Context, m *models.Match) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	var m models.Match
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &m, err
}

// GetByPairKey returns the authoritative row for a pair: a blocked row if one
// exists, otherwise the newest row. A block permanently claims the pair.
func (r *matchRepo) GetByPairKey(ctx context.Context, pairKey string) (*models.Match, error) {
	var m models.Match
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", pairKey).
		Order("(status = 'blocked') DESC, created_at DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &m, err
}

func (r *matchRepo) ListByUser(ctx context.Context, userID string) ([]models.Match, error) {
	var out []models.Match
	err := r.db.WithContext(ctx).
		Where("requester_id = ? OR target_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&out).Error
	return out, err
}

func (r *matchRepo) CountAtStep(ctx context.Context, userID string, step models.Step, statuses []models.Status, requesterOnly bool, excludeID string) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("step = ?", step).
		Where("status IN ?", statuses)

	if requesterOnly {
		q = q.Where("requester_id = ?", userID)
	} else {
		q = q.Where("requester_id = ? OR target_id = ?", userID, userID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *matchRepo) UpdateTransition(ctx context.Context, id string, fromStep models.Step, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND step = ?", id, fromStep).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *matchRepo) SetMatchPercentage(ctx context.Context, pairKey string, pct int) error {
	return r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("pair_key = ?", pairKey).
		Update("match_percentage", pct).Error
}

func (r *matchRepo) DistinctCounterparts(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT CASE WHEN requester_id = ? THEN target_id ELSE requester_id END
		   FROM matches
		  WHERE requester_id = ? OR target_id = ?`,
		userID, userID, userID,
	).Scan(&out).Error
	return out, err
}
