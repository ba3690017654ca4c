package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "cvtailor"
	}
	db := MongoClient.Database(dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// selection_runs indexes
	runs := db.Collection("selection_runs")
	_, err := runs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// 1) TTL index: audit documents expire at ExpiresAt (must be Date)
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
		// 2) Query helper: latest runs per user
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_user_created"),
		},
		// 3) Lookup by application
		{
			Keys:    bson.D{{Key: "application_id", Value: 1}},
			Options: options.Index().SetName("by_application"),
		},
	})
	return err
}
