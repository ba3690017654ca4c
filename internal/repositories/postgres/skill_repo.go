package postgres

import (
	"context"

	"github.com/rq1234/cv-tailor/internal/models"
	"gorm.io/gorm"
)

type SkillRepository interface {
	Insert(ctx context.Context, s *models.Skill) error
	// ListCandidates returns the user's skills that are not soft-dedup
	// pointers, in insertion order.
	ListCandidates(ctx context.Context, userID string) ([]models.Skill, error)
}

type skillRepo struct {
	db *gorm.DB
}

func NewSkillRepo(db *gorm.DB) SkillRepository {
	return &skillRepo{db: db}
}

func (r *skillRepo) Insert(ctx context.Context, s *models.Skill) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *skillRepo) ListCandidates(ctx context.Context, userID string) ([]models.Skill, error) {
	var rows []models.Skill
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_duplicate_of IS NULL", userID).
		Find(&rows).Error
	return rows, err
}
