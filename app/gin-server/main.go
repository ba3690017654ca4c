package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/rq1234/cv-tailor/config"
	"github.com/rq1234/cv-tailor/internal/api/handlers"
	"github.com/rq1234/cv-tailor/internal/api/middleware"
	"github.com/rq1234/cv-tailor/internal/api/routes"
	"github.com/rq1234/cv-tailor/internal/lease"
	"github.com/rq1234/cv-tailor/internal/logger"
	"github.com/rq1234/cv-tailor/internal/providers/embedding"
	"github.com/rq1234/cv-tailor/internal/providers/rewrite"
	mongorepo "github.com/rq1234/cv-tailor/internal/repositories/mongo"
	pgrepo "github.com/rq1234/cv-tailor/internal/repositories/postgres"
	"github.com/rq1234/cv-tailor/internal/services"
	"github.com/rq1234/cv-tailor/internal/workers"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	l := logger.New()
	settings := config.LoadSettings()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	fmt.Println("MongoDB connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	fmt.Println("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	fmt.Println("Redis connected")

	// Providers
	gemini, err := embedding.NewGemini(ctx, os.Getenv("GEMINI_API_KEY"), settings.EmbeddingModel)
	if err != nil {
		log.Fatalf("embedding provider init error: %v", err)
	}
	defer gemini.Close()

	retrying := embedding.NewRetrying(gemini, 3, 500*time.Millisecond)
	embedder, err := embedding.NewCached(retrying, settings.EmbedCacheSize)
	if err != nil {
		log.Fatalf("embedding cache init error: %v", err)
	}

	rewriter, err := rewrite.NewOpenAI(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))
	if err != nil {
		log.Fatalf("rewrite provider init error: %v", err)
	}
	defer rewriter.Close()

	// Repositories
	experienceRepo := pgrepo.NewExperienceRepo(config.PostgresDB)
	projectRepo := pgrepo.NewProjectRepo(config.PostgresDB)
	activityRepo := pgrepo.NewActivityRepo(config.PostgresDB)
	educationRepo := pgrepo.NewEducationRepo(config.PostgresDB)
	skillRepo := pgrepo.NewSkillRepo(config.PostgresDB)
	uploadRepo := pgrepo.NewUploadRepo(config.PostgresDB)
	versionRepo := pgrepo.NewVersionRepo(config.PostgresDB)

	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "cvtailor"
	}
	runRepo := mongorepo.NewSelectionRunRepo(config.MongoClient.Database(mongoDB))

	// Services
	dedupSvc := services.NewDedupService(experienceRepo, projectRepo, activityRepo, embedder, settings, l)
	selectionSvc := services.NewSelectionService(
		experienceRepo, projectRepo, activityRepo,
		educationRepo, skillRepo, uploadRepo,
		embedder, settings, l,
	)
	tailorSvc := services.NewTailorService(
		selectionSvc, experienceRepo, versionRepo, runRepo,
		rewriter, lease.NewRedisLease(config.RedisClient),
		settings, l,
	)
	enqueue := func(ctx context.Context, kind, userID, entityID string) error {
		return workers.EnqueueEmbedJob(ctx, config.RedisClient, "", kind, userID, entityID)
	}
	librarySvc := services.NewLibraryService(experienceRepo, projectRepo, activityRepo, dedupSvc, enqueue, l)

	// Embed backfill workers
	pool := &workers.EmbedWorkerPool{
		Redis:       config.RedisClient,
		Experiences: experienceRepo,
		Projects:    projectRepo,
		Activities:  activityRepo,
		Embedder:    embedder,
		Logger:      l,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("embed worker start error: %v", err)
	}

	// Start Gin server
	r := gin.Default()
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Library: handlers.NewLibraryHandler(librarySvc),
		Tailor:  handlers.NewTailorHandler(selectionSvc, tailorSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
