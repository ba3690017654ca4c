package postgres

import (
	"context"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rq1234/cv-tailor/internal/models"
	"gorm.io/gorm"
)

// ExperienceHit is one ranked row of a top-K similarity search over the
// work-experience pool.
type ExperienceHit struct {
	ID             string         `gorm:"column:id"`
	Company        string         `gorm:"column:company"`
	RoleTitle      string         `gorm:"column:role_title"`
	VariantGroupID *string        `gorm:"column:variant_group_id"`
	DomainTags     pq.StringArray `gorm:"column:domain_tags;type:text[]"`
	Similarity     float64        `gorm:"column:similarity"`
}

type ExperienceRepository interface {
	Insert(ctx context.Context, e *models.WorkExperience) error
	Save(ctx context.Context, e *models.WorkExperience) error
	GetByID(ctx context.Context, userID, id string) (*models.WorkExperience, error)
	GetByIDs(ctx context.Context, userID string, ids []string) ([]models.WorkExperience, error)
	SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]ExperienceHit, error)
	FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]SimilarHit, error)
	ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error)
}

type experienceRepo struct {
	db *gorm.DB
}

func NewExperienceRepo(db *gorm.DB) ExperienceRepository {
	return &experienceRepo{db: db}
}

func (r *experienceRepo) Insert(ctx context.Context, e *models.WorkExperience) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *experienceRepo) Save(ctx context.Context, e *models.WorkExperience) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *experienceRepo) GetByID(ctx context.Context, userID, id string) (*models.WorkExperience, error) {
	var e models.WorkExperience
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&e).Error
	return &e, err
}

func (r *experienceRepo) GetByIDs(ctx context.Context, userID string, ids []string) ([]models.WorkExperience, error) {
	var rows []models.WorkExperience
	err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&rows).Error
	return rows, err
}

func (r *experienceRepo) SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]ExperienceHit, error) {
	var rows []ExperienceHit
	q := `
		SELECT id, company, role_title, variant_group_id, domain_tags,
		       1 - (embedding <=> ?) AS similarity
		FROM work_experiences
		WHERE embedding IS NOT NULL
		  AND user_id = ?`
	args := []any{query, userID}
	if uploadSourceID != nil {
		q += ` AND upload_source_id = ?`
		args = append(args, *uploadSourceID)
	}
	q += ` ORDER BY similarity DESC LIMIT ?`
	args = append(args, limit)

	err := r.db.WithContext(ctx).Raw(q, args...).Scan(&rows).Error
	return rows, err
}

func (r *experienceRepo) FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]SimilarHit, error) {
	var rows []SimilarHit
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, variant_group_id,
		       1 - (embedding <=> ?) AS similarity
		FROM work_experiences
		WHERE embedding IS NOT NULL
		  AND user_id = ?
		  AND 1 - (embedding <=> ?) > ?
		ORDER BY similarity DESC
		LIMIT ?`,
		query, userID, query, threshold, limit,
	).Scan(&rows).Error
	return rows, err
}

func (r *experienceRepo) ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.WorkExperience{}).
		Where("user_id = ? AND embedding IS NULL", userID).
		Pluck("id", &ids).Error
	return ids, err
}
