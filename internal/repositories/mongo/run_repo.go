package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rq1234/cv-tailor/internal/models"
	"github.com/rq1234/cv-tailor/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Audit documents are kept for 90 days, then a TTL index drops them.
const runRetention = 90 * 24 * time.Hour

type SelectionRunRepository interface {
	Create(ctx context.Context, run *models.SelectionRun) error
	GetByRunID(ctx context.Context, runID string) (*models.SelectionRun, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.SelectionRun, error)
}

type runRepo struct {
	col *mongo.Collection
}

func NewSelectionRunRepo(db *mongo.Database) SelectionRunRepository {
	return &runRepo{col: db.Collection("selection_runs")}
}

func (r *runRepo) Create(ctx context.Context, run *models.SelectionRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.ExpiresAt.IsZero() {
		run.ExpiresAt = run.CreatedAt.Add(runRetention)
	}
	_, err := r.col.InsertOne(ctx, run)
	return err
}

func (r *runRepo) GetByRunID(ctx context.Context, runID string) (*models.SelectionRun, error) {
	var run models.SelectionRun
	err := r.col.FindOne(ctx, bson.M{"run_id": runID}).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &run, err
}

func (r *runRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.SelectionRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var runs []models.SelectionRun
	if err := cur.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
