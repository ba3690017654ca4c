package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rq1234/cv-tailor/internal/models"
	pgrepo "github.com/rq1234/cv-tailor/internal/repositories/postgres"
	"github.com/rq1234/cv-tailor/internal/utils"
	"github.com/sirupsen/logrus"
)

// EnqueueEmbed publishes one re-embed job. Injected so the service stays
// decoupled from the worker transport.
type EnqueueEmbed func(ctx context.Context, kind, userID, entityID string) error

// LibraryService ingests entities into the user's pool. Every add runs the
// dedup classifier before persisting, so variant-group identity is assigned
// at write time, not at selection time.
type LibraryService interface {
	AddExperience(ctx context.Context, e *models.WorkExperience) (*DedupResult, error)
	AddProject(ctx context.Context, p *models.Project) (*DedupResult, error)
	AddActivity(ctx context.Context, a *models.Activity) (*DedupResult, error)
	// EnqueueReembed queues backfill jobs for every entity of the user that
	// has no embedding yet and returns how many were queued.
	EnqueueReembed(ctx context.Context, userID string) (int, error)
}

type libraryService struct {
	experiences pgrepo.ExperienceRepository
	projects    pgrepo.ProjectRepository
	activities  pgrepo.ActivityRepository
	dedup       DedupService
	enqueue     EnqueueEmbed
	log         *logrus.Logger
}

func NewLibraryService(
	experiences pgrepo.ExperienceRepository,
	projects pgrepo.ProjectRepository,
	activities pgrepo.ActivityRepository,
	dedup DedupService,
	enqueue EnqueueEmbed,
	log *logrus.Logger,
) LibraryService {
	return &libraryService{
		experiences: experiences,
		projects:    projects,
		activities:  activities,
		dedup:       dedup,
		enqueue:     enqueue,
		log:         log,
	}
}

func (s *libraryService) AddExperience(ctx context.Context, e *models.WorkExperience) (*DedupResult, error) {
	const op = "LibraryService.AddExperience"

	if e == nil || e.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	res, err := s.dedup.ClassifyExperience(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := s.experiences.Insert(ctx, e); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert experience", err)
	}

	s.log.WithFields(logrus.Fields{
		"experience_id": e.ID,
		"action":        res.Action,
		"variant_group": res.VariantGroupID,
	}).Info("experience ingested")
	return res, nil
}

func (s *libraryService) AddProject(ctx context.Context, p *models.Project) (*DedupResult, error) {
	const op = "LibraryService.AddProject"

	if p == nil || p.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	res, err := s.dedup.ClassifyProject(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.projects.Insert(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert project", err)
	}

	s.log.WithFields(logrus.Fields{
		"project_id":    p.ID,
		"action":        res.Action,
		"variant_group": res.VariantGroupID,
	}).Info("project ingested")
	return res, nil
}

func (s *libraryService) AddActivity(ctx context.Context, a *models.Activity) (*DedupResult, error) {
	const op = "LibraryService.AddActivity"

	if a == nil || a.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	res, err := s.dedup.ClassifyActivity(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := s.activities.Insert(ctx, a); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert activity", err)
	}

	s.log.WithFields(logrus.Fields{
		"activity_id":   a.ID,
		"action":        res.Action,
		"variant_group": res.VariantGroupID,
	}).Info("activity ingested")
	return res, nil
}

func (s *libraryService) EnqueueReembed(ctx context.Context, userID string) (int, error) {
	const op = "LibraryService.EnqueueReembed"

	if userID == "" {
		return 0, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	kinds := []struct {
		kind string
		list func(context.Context, string) ([]string, error)
	}{
		{"experience", s.experiences.ListIDsMissingEmbedding},
		{"project", s.projects.ListIDsMissingEmbedding},
		{"activity", s.activities.ListIDsMissingEmbedding},
	}

	queued := 0
	for _, k := range kinds {
		ids, err := k.list(ctx, userID)
		if err != nil {
			return queued, utils.E(utils.CodeInternal, op, "failed to list entities missing embeddings", err)
		}
		for _, id := range ids {
			if err := s.enqueue(ctx, k.kind, userID, id); err != nil {
				return queued, utils.E(utils.CodeUnavailable, op, "failed to enqueue re-embed job", err)
			}
			queued++
		}
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"queued":  queued,
	}).Info("re-embed backfill queued")
	return queued, nil
}
