package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/scoring"
	"github.com/tawafuqapp/tawafuq/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)

	// SaveTraits replaces the stored trait vector wholesale and bumps the
	// engine version and computation timestamp.
	SaveTraits(ctx context.Context, userID string, v scoring.TraitVector, computedAt time.Time) error

	// NearestByTraits returns users ordered by cosine distance to the given
	// embedding, skipping the excluded ids. An empty religion disables the
	// religion filter.
	NearestByTraits(ctx context.Context, embedding pgvector.Vector, excludeIDs []string, religion string, limit int) ([]models.User, error)

	// ListIDs pages user ids for bulk tooling; cursor is the last id of the
	// previous page ("" starts from the beginning).
	ListIDs(ctx context.Context, cursor string, limit int) ([]string, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &u, err
}

func (r *userRepo) SaveTraits(ctx context.Context, userID string, v scoring.TraitVector, computedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"trait_dominance":           v.Dominance,
			"trait_stability":           v.Stability,
			"trait_empathy":             v.Empathy,
			"trait_logic":               v.Logic,
			"trait_religiosity":         v.Religiosity,
			"trait_conflict_style":      v.ConflictStyle,
			"trait_attachment_security": v.AttachmentSecurity,
			"trait_ambition":            v.Ambition,
			"trait_embedding":           v.Embedding(),
			"traits_engine_version":     scoring.EngineVersion,
			"traits_computed_at":        computedAt,
			"updated_at":                computedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *userRepo) NearestByTraits(ctx context.Context, embedding pgvector.Vector, excludeIDs []string, religion string, limit int) ([]models.User, error) {
	var out []models.User
	err := r.nearestByTraitsQuery(ctx, embedding, excludeIDs, religion, limit).Find(&out).Error
	return out, err
}

// nearestByTraitsQuery builds the cosine-distance query. Ordering by a vector
// operator needs an OrderBy clause expression; a plain Order(gorm.Expr(...))
// is dropped by the clause builder.
func (r *userRepo) nearestByTraitsQuery(ctx context.Context, embedding pgvector.Vector, excludeIDs []string, religion string, limit int) *gorm.DB {
	if limit <= 0 {
		limit = 10
	}

	q := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("traits_computed_at IS NOT NULL")
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	if religion != "" {
		// undeclared religion stays eligible; only a declared mismatch is out
		q = q.Where("religion = '' OR religion = ?", religion)
	}

	return q.
		Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:                "trait_embedding <=> ?",
				Vars:               []any{embedding},
				WithoutParentheses: true,
			},
		}).
		Limit(limit)
}

func (r *userRepo) ListIDs(ctx context.Context, cursor string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}
	q := r.db.WithContext(ctx).
		Model(&models.User{}).
		Order("id ASC").
		Limit(limit)
	if cursor != "" {
		q = q.Where("id > ?", cursor)
	}

	var out []string
	err := q.Pluck("id", &out).Error
	return out, err
}
