package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/rq1234/cv-tailor/internal/models"
	"gorm.io/gorm"
)

type ActivityHit struct {
	ID             string  `gorm:"column:id"`
	Organization   string  `gorm:"column:organization"`
	RoleTitle      string  `gorm:"column:role_title"`
	VariantGroupID *string `gorm:"column:variant_group_id"`
	Similarity     float64 `gorm:"column:similarity"`
}

type ActivityRepository interface {
	Insert(ctx context.Context, a *models.Activity) error
	Save(ctx context.Context, a *models.Activity) error
	GetByID(ctx context.Context, userID, id string) (*models.Activity, error)
	GetByIDs(ctx context.Context, userID string, ids []string) ([]models.Activity, error)
	SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]ActivityHit, error)
	FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]SimilarHit, error)
	ListByUser(ctx context.Context, userID string, uploadSourceID *string, limit int) ([]models.Activity, error)
	ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error)
}

type activityRepo struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Insert(ctx context.Context, a *models.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *activityRepo) Save(ctx context.Context, a *models.Activity) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *activityRepo) GetByID(ctx context.Context, userID, id string) (*models.Activity, error) {
	var a models.Activity
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&a).Error
	return &a, err
}

func (r *activityRepo) GetByIDs(ctx context.Context, userID string, ids []string) ([]models.Activity, error) {
	var rows []models.Activity
	err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&rows).Error
	return rows, err
}

func (r *activityRepo) SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]ActivityHit, error) {
	var rows []ActivityHit
	q := `
		SELECT id, organization, role_title, variant_group_id,
		       1 - (embedding <=> ?) AS similarity
		FROM activities
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

func (r *activityRepo) FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]SimilarHit, error) {
	var rows []SimilarHit
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, variant_group_id,
		       1 - (embedding <=> ?) AS similarity
		FROM activities
		WHERE embedding IS NOT NULL
		  AND user_id = ?
		  AND 1 - (embedding <=> ?) > ?
		ORDER BY similarity DESC
		LIMIT ?`,
		query, userID, query, threshold, limit,
	).Scan(&rows).Error
	return rows, err
}

func (r *activityRepo) ListByUser(ctx context.Context, userID string, uploadSourceID *string, limit int) ([]models.Activity, error) {
	var rows []models.Activity
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if uploadSourceID != nil {
		q = q.Where("upload_source_id = ?", *uploadSourceID)
	}
	err := q.Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *activityRepo) ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("user_id = ? AND embedding IS NULL", userID).
		Pluck("id", &ids).Error
	return ids, err
}
