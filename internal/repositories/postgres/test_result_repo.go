package postgres

import (
	"context"

	"github.com/tawafuqapp/tawafuq/internal/models"
	"gorm.io/gorm"
)

type TestResultRepository interface {
	Insert(ctx context.Context, r *models.TestResult) error
	ListByUser(ctx context.Context, userID string) ([]models.TestResult, error)
}

type testResultRepo struct {
	db *gorm.DB
}

func NewTestResultRepo(db *gorm.DB) TestResultRepository {
	return &testResultRepo{db: db}
}

func (r *testResultRepo) Insert(ctx context.Context, row *models.TestResult) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListByUser returns the full history, newest first, so callers that reduce
// per instrument see the most recent row first.
func (r *testResultRepo) ListByUser(ctx context.Context, userID string) ([]models.TestResult, error) {
	var out []models.TestResult
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
