package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/redis/go-redis/v9"
	"github.com/rq1234/cv-tailor/internal/providers/embedding"
	pgrepo "github.com/rq1234/cv-tailor/internal/repositories/postgres"
	"github.com/rq1234/cv-tailor/internal/services"
	"github.com/rq1234/cv-tailor/internal/utils"
	"github.com/sirupsen/logrus"
)

// Entity kinds accepted on the embed stream.
const (
	EmbedKindExperience = "experience"
	EmbedKindProject    = "project"
	EmbedKindActivity   = "activity"
)

// EmbedWorkerPool consumes re-embed jobs from a redis stream and backfills
// entity embeddings. Jobs are enqueued when an entity's text changes or when
// the embedding model is rotated and the whole pool needs re-embedding.
type EmbedWorkerPool struct {
	Redis       *redis.Client
	Experiences pgrepo.ExperienceRepository
	Projects    pgrepo.ProjectRepository
	Activities  pgrepo.ActivityRepository
	Embedder    embedding.Provider
	NumWorkers  int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

// EnqueueEmbedJob publishes one re-embed job to the stream.
func EnqueueEmbedJob(ctx context.Context, rdb *redis.Client, stream, kind, userID, entityID string) error {
	if stream == "" {
		stream = "embed:stream"
	}
	return rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"kind":      kind,
			"user_id":   userID,
			"entity_id": entityID,
		},
	}).Err()
}

func (p *EmbedWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Experiences == nil || p.Projects == nil || p.Activities == nil || p.Embedder == nil {
		return errors.New("EmbedWorkerPool missing dependency: Redis/Experiences/Projects/Activities/Embedder must be set")
	}
	if p.Stream == "" {
		p.Stream = "embed:stream"
	}
	if p.Group == "" {
		p.Group = "embed-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *EmbedWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *EmbedWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	kind := getStr("kind")
	userID := getStr("user_id")
	entityID := getStr("entity_id")
	if kind == "" || userID == "" || entityID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":  msg.ID,
		"kind":      kind,
		"entity_id": entityID,
	})

	var err error
	switch kind {
	case EmbedKindExperience:
		err = p.embedExperience(ctx, userID, entityID)
	case EmbedKindProject:
		err = p.embedProject(ctx, userID, entityID)
	case EmbedKindActivity:
		err = p.embedActivity(ctx, userID, entityID)
	default:
		log.Warn("unknown embed job kind")
		return
	}
	if err != nil {
		// Acked regardless; a failed backfill job is retried by the next
		// enqueue, not by redelivery.
		log.WithError(err).Error("embed backfill failed")
		return
	}
	log.Info("embedding backfilled")
}

func (p *EmbedWorkerPool) embedExperience(ctx context.Context, userID, id string) error {
	e, err := p.Experiences.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	vec, err := p.embed(ctx, services.SummaryText(e.Company, e.RoleTitle, utils.ExtractBulletTexts(e.Bullets)))
	if err != nil {
		return err
	}
	e.Embedding = vec
	return p.Experiences.Save(ctx, e)
}

func (p *EmbedWorkerPool) embedProject(ctx context.Context, userID, id string) error {
	pr, err := p.Projects.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	vec, err := p.embed(ctx, services.SummaryText(pr.Name, pr.Description, utils.ExtractBulletTexts(pr.Bullets)))
	if err != nil {
		return err
	}
	pr.Embedding = vec
	return p.Projects.Save(ctx, pr)
}

func (p *EmbedWorkerPool) embedActivity(ctx context.Context, userID, id string) error {
	a, err := p.Activities.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	vec, err := p.embed(ctx, services.SummaryText(a.Organization, a.RoleTitle, utils.ExtractBulletTexts(a.Bullets)))
	if err != nil {
		return err
	}
	a.Embedding = vec
	return p.Activities.Save(ctx, a)
}

func (p *EmbedWorkerPool) embed(ctx context.Context, text string) (*pgvector.Vector, error) {
	raw, err := p.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	vec := pgvector.NewVector(raw)
	return &vec, nil
}
