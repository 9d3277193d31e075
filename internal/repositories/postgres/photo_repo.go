package postgres

import (
	"context"

	"github.com/tawafuqapp/tawafuq/internal/models"
	"gorm.io/gorm"
)

type PhotoRepository interface {
	Insert(ctx context.Context, p *models.Photo) error
	ListByUser(ctx context.Context, userID string) ([]models.Photo, error)
}

type photoRepo struct {
	db *gorm.DB
}

func NewPhotoRepo(db *gorm.DB) PhotoRepository {
	return &photoRepo{db: db}
}

func (r *photoRepo) Insert(ctx context.Context, p *models.Photo) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *photoRepo) ListByUser(ctx context.Context, userID string) ([]models.Photo, error) {
	var out []models.Photo
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_at DESC").
		Find(&out).Error
	return out, err
}
