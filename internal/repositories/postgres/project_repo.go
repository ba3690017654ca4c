package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/rq1234/cv-tailor/internal/models"
	"gorm.io/gorm"
)

type ProjectHit struct {
	ID             string  `gorm:"column:id"`
	Name           string  `gorm:"column:name"`
	VariantGroupID *string `gorm:"column:variant_group_id"`
	Similarity     float64 `gorm:"column:similarity"`
}

type ProjectRepository interface {
	Insert(ctx context.Context, p *models.Project) error
	Save(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, userID, id string) (*models.Project, error)
	GetByIDs(ctx context.Context, userID string, ids []string) ([]models.Project, error)
	SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]ProjectHit, error)
	FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]SimilarHit, error)
	// ListByUser is the unranked fallback when no embedded rows exist yet.
	ListByUser(ctx context.Context, userID string, uploadSourceID *string, limit int) ([]models.Project, error)
	ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error)
}

type projectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Insert(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) Save(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *projectRepo) GetByID(ctx context.Context, userID, id string) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&p).Error
	return &p, err
}

func (r *projectRepo) GetByIDs(ctx context.Context, userID string, ids []string) ([]models.Project, error) {
	var rows []models.Project
	err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&rows).Error
	return rows, err
}

func (r *projectRepo) SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]ProjectHit, error) {
	var rows []ProjectHit
	q := `
		SELECT id, name, variant_group_id,
		       1 - (embedding <=> ?) AS similarity
		FROM projects
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

func (r *projectRepo) FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]SimilarHit, error) {
	var rows []SimilarHit
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, variant_group_id,
		       1 - (embedding <=> ?) AS similarity
		FROM projects
		WHERE embedding IS NOT NULL
		  AND user_id = ?
		  AND 1 - (embedding <=> ?) > ?
		ORDER BY similarity DESC
		LIMIT ?`,
		query, userID, query, threshold, limit,
	).Scan(&rows).Error
	return rows, err
}

func (r *projectRepo) ListByUser(ctx context.Context, userID string, uploadSourceID *string, limit int) ([]models.Project, error) {
	var rows []models.Project
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if uploadSourceID != nil {
		q = q.Where("upload_source_id = ?", *uploadSourceID)
	}
	err := q.Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *projectRepo) ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("user_id = ? AND embedding IS NULL", userID).
		Pluck("id", &ids).Error
	return ids, err
}
