package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/rq1234/cv-tailor/config"
	"github.com/rq1234/cv-tailor/internal/models"
	"github.com/rq1234/cv-tailor/internal/providers/embedding"
	pgrepo "github.com/rq1234/cv-tailor/internal/repositories/postgres"
	"github.com/rq1234/cv-tailor/internal/utils"
	"github.com/sirupsen/logrus"
)

// DedupAction classifies a new entity against the existing pool.
type DedupAction string

const (
	// DedupNew: nothing above the variant threshold; fresh group, primary.
	DedupNew DedupAction = "new"
	// DedupVariant: above the variant threshold but below near-duplicate.
	// Same grouping as near_duplicate, lower confidence it is the same entry.
	DedupVariant DedupAction = "variant"
	// DedupNearDuplicate: almost certainly the same underlying entry.
	DedupNearDuplicate DedupAction = "near_duplicate"
)

// How many candidates the thresholded similarity query may return.
const dedupCandidateLimit = 5

type DedupResult struct {
	Action          DedupAction `json:"action"`
	ExistingID      *string     `json:"existing_id,omitempty"`
	SimilarityScore float64     `json:"similarity_score"`
	VariantGroupID  string      `json:"variant_group_id"`
}

// DedupService assigns variant-group identity to newly created entities. It
// mutates only the entity passed in, never the matched candidate. Any
// embedding or query failure fails open: the entity gets a fresh singleton
// group so the upload pipeline is never blocked on dedup.
type DedupService interface {
	ClassifyExperience(ctx context.Context, e *models.WorkExperience) (*DedupResult, error)
	ClassifyProject(ctx context.Context, p *models.Project) (*DedupResult, error)
	ClassifyActivity(ctx context.Context, a *models.Activity) (*DedupResult, error)
}

type dedupService struct {
	experiences pgrepo.ExperienceRepository
	projects    pgrepo.ProjectRepository
	activities  pgrepo.ActivityRepository
	embedder    embedding.Provider
	cfg         config.Settings
	log         *logrus.Logger
}

func NewDedupService(
	experiences pgrepo.ExperienceRepository,
	projects pgrepo.ProjectRepository,
	activities pgrepo.ActivityRepository,
	embedder embedding.Provider,
	cfg config.Settings,
	log *logrus.Logger,
) DedupService {
	return &dedupService{
		experiences: experiences,
		projects:    projects,
		activities:  activities,
		embedder:    embedder,
		cfg:         cfg,
		log:         log,
	}
}

func (s *dedupService) ClassifyExperience(ctx context.Context, e *models.WorkExperience) (*DedupResult, error) {
	const op = "DedupService.ClassifyExperience"

	if e == nil || e.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "experience with user_id is required", nil)
	}

	summary := SummaryText(e.Company, e.RoleTitle, utils.ExtractBulletTexts(e.Bullets))
	vec, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		s.log.WithError(err).WithField("experience_id", e.ID).
			Warn("dedup embedding failed; assigning singleton variant group")
		return failOpen(&e.VariantGroupID, &e.IsPrimaryVariant), nil
	}
	v := pgvector.NewVector(vec)
	e.Embedding = &v

	similar, err := s.experiences.FindSimilar(ctx, e.UserID, v, s.cfg.VariantThreshold, dedupCandidateLimit)
	if err != nil {
		s.log.WithError(err).WithField("experience_id", e.ID).
			Warn("dedup similarity query failed; assigning singleton variant group")
		return failOpen(&e.VariantGroupID, &e.IsPrimaryVariant), nil
	}

	res := classifySimilar(e.VariantGroupID, dropSelf(e.ID, similar), s.cfg.NearDuplicateThreshold)
	e.IsPrimaryVariant = primaryAfter(e.VariantGroupID, e.IsPrimaryVariant, res)
	e.VariantGroupID = &res.VariantGroupID
	if res.Action != DedupNew {
		score := res.SimilarityScore
		e.SimilarityScore = &score
	}
	return res, nil
}

func (s *dedupService) ClassifyProject(ctx context.Context, p *models.Project) (*DedupResult, error) {
	const op = "DedupService.ClassifyProject"

	if p == nil || p.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "project with user_id is required", nil)
	}

	summary := SummaryText(p.Name, p.Description, utils.ExtractBulletTexts(p.Bullets))
	vec, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		s.log.WithError(err).WithField("project_id", p.ID).
			Warn("dedup embedding failed; assigning singleton variant group")
		return failOpen(&p.VariantGroupID, &p.IsPrimaryVariant), nil
	}
	v := pgvector.NewVector(vec)
	p.Embedding = &v

	similar, err := s.projects.FindSimilar(ctx, p.UserID, v, s.cfg.VariantThreshold, dedupCandidateLimit)
	if err != nil {
		s.log.WithError(err).WithField("project_id", p.ID).
			Warn("dedup similarity query failed; assigning singleton variant group")
		return failOpen(&p.VariantGroupID, &p.IsPrimaryVariant), nil
	}

	res := classifySimilar(p.VariantGroupID, dropSelf(p.ID, similar), s.cfg.NearDuplicateThreshold)
	p.IsPrimaryVariant = primaryAfter(p.VariantGroupID, p.IsPrimaryVariant, res)
	p.VariantGroupID = &res.VariantGroupID
	return res, nil
}

func (s *dedupService) ClassifyActivity(ctx context.Context, a *models.Activity) (*DedupResult, error) {
	const op = "DedupService.ClassifyActivity"

	if a == nil || a.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "activity with user_id is required", nil)
	}

	summary := SummaryText(a.Organization, a.RoleTitle, utils.ExtractBulletTexts(a.Bullets))
	vec, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		s.log.WithError(err).WithField("activity_id", a.ID).
			Warn("dedup embedding failed; assigning singleton variant group")
		return failOpen(&a.VariantGroupID, &a.IsPrimaryVariant), nil
	}
	v := pgvector.NewVector(vec)
	a.Embedding = &v

	similar, err := s.activities.FindSimilar(ctx, a.UserID, v, s.cfg.VariantThreshold, dedupCandidateLimit)
	if err != nil {
		s.log.WithError(err).WithField("activity_id", a.ID).
			Warn("dedup similarity query failed; assigning singleton variant group")
		return failOpen(&a.VariantGroupID, &a.IsPrimaryVariant), nil
	}

	res := classifySimilar(a.VariantGroupID, dropSelf(a.ID, similar), s.cfg.NearDuplicateThreshold)
	a.IsPrimaryVariant = primaryAfter(a.VariantGroupID, a.IsPrimaryVariant, res)
	a.VariantGroupID = &res.VariantGroupID
	if res.Action != DedupNew {
		score := res.SimilarityScore
		a.SimilarityScore = &score
	}
	return res, nil
}

// SummaryText builds the embedding input: header fields plus all bullets.
func SummaryText(head, sub string, bullets []string) string {
	parts := make([]string, 0, len(bullets)+2)
	if head != "" {
		parts = append(parts, head)
	}
	if sub != "" {
		parts = append(parts, sub)
	}
	parts = append(parts, bullets...)
	return strings.Join(parts, " ")
}

// dropSelf removes the entity's own row from the candidate list, so
// re-classifying an already-persisted entity is idempotent.
func dropSelf(id string, hits []pgrepo.SimilarHit) []pgrepo.SimilarHit {
	out := hits[:0]
	for _, h := range hits {
		if h.ID != id {
			out = append(out, h)
		}
	}
	return out
}

// classifySimilar decides the action from the ordered candidate list. An
// entity that already carries a group id keeps it when no match is found.
func classifySimilar(existingGroup *string, similar []pgrepo.SimilarHit, nearThreshold float64) *DedupResult {
	if len(similar) == 0 {
		groupID := uuid.NewString()
		if existingGroup != nil && *existingGroup != "" {
			groupID = *existingGroup
		}
		return &DedupResult{Action: DedupNew, VariantGroupID: groupID}
	}

	best := similar[0]
	groupID := uuid.NewString()
	if best.VariantGroupID != nil && *best.VariantGroupID != "" {
		groupID = *best.VariantGroupID
	}

	action := DedupVariant
	if best.Similarity > nearThreshold {
		action = DedupNearDuplicate
	}
	existingID := best.ID
	return &DedupResult{
		Action:          action,
		ExistingID:      &existingID,
		SimilarityScore: best.Similarity,
		VariantGroupID:  groupID,
	}
}

// primaryAfter keeps re-classification idempotent: landing in the group the
// entity already belongs to must not flip its primary flag.
func primaryAfter(prevGroup *string, prevPrimary bool, res *DedupResult) bool {
	if prevGroup != nil && *prevGroup == res.VariantGroupID {
		return prevPrimary
	}
	return res.Action == DedupNew
}

// failOpen assigns a fresh singleton group so the entity is never left
// ungrouped when the provider or the index is down.
func failOpen(groupField **string, primaryField *bool) *DedupResult {
	groupID := uuid.NewString()
	if *groupField != nil && **groupField != "" {
		groupID = **groupField
	}
	*groupField = &groupID
	*primaryField = true
	return &DedupResult{Action: DedupNew, VariantGroupID: groupID}
}
