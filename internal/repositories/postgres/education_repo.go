package postgres

import (
	"context"

	"github.com/rq1234/cv-tailor/internal/models"
	"gorm.io/gorm"
)

type EducationRepository interface {
	Insert(ctx context.Context, e *models.Education) error
	// ListByUser returns all entries, most recent first (null dates last).
	ListByUser(ctx context.Context, userID string) ([]models.Education, error)
}

type educationRepo struct {
	db *gorm.DB
}

func NewEducationRepo(db *gorm.DB) EducationRepository {
	return &educationRepo{db: db}
}

func (r *educationRepo) Insert(ctx context.Context, e *models.Education) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *educationRepo) ListByUser(ctx context.Context, userID string) ([]models.Education, error) {
	var rows []models.Education
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_end DESC NULLS LAST").
		Order("date_start DESC NULLS LAST").
		Find(&rows).Error
	return rows, err
}
