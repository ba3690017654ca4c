package postgres

import (
	"context"

	"github.com/rq1234/cv-tailor/internal/models"
	"gorm.io/gorm"
)

type VersionRepository interface {
	Insert(ctx context.Context, v *models.CvVersion) error
	LatestByUser(ctx context.Context, userID string) (*models.CvVersion, error)
}

type versionRepo struct {
	db *gorm.DB
}

func NewVersionRepo(db *gorm.DB) VersionRepository {
	return &versionRepo{db: db}
}

func (r *versionRepo) Insert(ctx context.Context, v *models.CvVersion) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *versionRepo) LatestByUser(ctx context.Context, userID string) (*models.CvVersion, error) {
	var row models.CvVersion
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Take(&row).Error
	return &row, err
}
