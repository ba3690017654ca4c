package postgres

import (
	"context"
	"errors"

	"github.com/rq1234/cv-tailor/internal/models"
	"github.com/rq1234/cv-tailor/internal/utils"
	"gorm.io/gorm"
)

type UploadRepository interface {
	Insert(ctx context.Context, u *models.CvUpload) error
	// LatestByUser returns utils.ErrNotFound when the user has no uploads.
	LatestByUser(ctx context.Context, userID string) (*models.CvUpload, error)
}

type uploadRepo struct {
	db *gorm.DB
}

func NewUploadRepo(db *gorm.DB) UploadRepository {
	return &uploadRepo{db: db}
}

func (r *uploadRepo) Insert(ctx context.Context, u *models.CvUpload) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *uploadRepo) LatestByUser(ctx context.Context, userID string) (*models.CvUpload, error) {
	var row models.CvUpload
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}
