package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rq1234/cv-tailor/config"
	"github.com/rq1234/cv-tailor/internal/lease"
	"github.com/rq1234/cv-tailor/internal/models"
	"github.com/rq1234/cv-tailor/internal/providers/rewrite"
	mongorepo "github.com/rq1234/cv-tailor/internal/repositories/mongo"
	pgrepo "github.com/rq1234/cv-tailor/internal/repositories/postgres"
	"github.com/rq1234/cv-tailor/internal/utils"
	"github.com/sirupsen/logrus"
)

// TailorRequest drives one tailoring pipeline invocation.
type TailorRequest struct {
	ApplicationID  *string
	JD             *models.ParsedJD
	MaxPages       int
	Mode           SelectionMode
	RewriteBullets bool
}

// TailorResult reports the persisted version plus the selection behind it.
// Degraded is set when bullet rewriting was requested but failed; the
// version is still written with the original bullets.
type TailorResult struct {
	VersionID string           `json:"version_id"`
	RunID     string           `json:"run_id"`
	Selection *SelectionResult `json:"selection"`
	Degraded  bool             `json:"degraded"`
}

// TailorService runs the full pipeline: select, optionally rewrite bullets,
// persist a CV version, and record an audit document. At most one pipeline
// per user runs at a time.
type TailorService interface {
	Run(ctx context.Context, userID string, req *TailorRequest) (*TailorResult, error)
}

type tailorService struct {
	selection   SelectionService
	experiences pgrepo.ExperienceRepository
	versions    pgrepo.VersionRepository
	runs        mongorepo.SelectionRunRepository
	rewriter    rewrite.Provider
	locks       lease.Lease
	cfg         config.Settings
	log         *logrus.Logger
}

func NewTailorService(
	selection SelectionService,
	experiences pgrepo.ExperienceRepository,
	versions pgrepo.VersionRepository,
	runs mongorepo.SelectionRunRepository,
	rewriter rewrite.Provider,
	locks lease.Lease,
	cfg config.Settings,
	log *logrus.Logger,
) TailorService {
	return &tailorService{
		selection:   selection,
		experiences: experiences,
		versions:    versions,
		runs:        runs,
		rewriter:    rewriter,
		locks:       locks,
		cfg:         cfg,
		log:         log,
	}
}

func (s *tailorService) Run(ctx context.Context, userID string, req *TailorRequest) (*TailorResult, error) {
	const op = "TailorService.Run"

	if req == nil || req.JD == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "parsed JD is required", nil)
	}

	ttl := time.Duration(s.cfg.LeaseTTLSeconds) * time.Second
	release, acquired, err := s.locks.Acquire(ctx, "tailor:lease:"+userID, ttl)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to acquire tailoring lease", err)
	}
	if !acquired {
		return nil, utils.E(utils.CodeConflict, op, "a tailoring pipeline is already running for this user", nil)
	}
	defer release()

	started := time.Now()
	runID := uuid.NewString()

	result, err := s.selection.Select(ctx, userID, req.JD, req.MaxPages, req.Mode)
	if err != nil {
		return nil, err
	}

	var diffJSON []byte
	degraded := false
	if req.RewriteBullets {
		diffJSON, degraded = s.rewriteSelected(ctx, userID, req.JD, result.SelectedExperiences)
	}

	version := &models.CvVersion{
		ID:                  uuid.NewString(),
		UserID:              userID,
		ApplicationID:       req.ApplicationID,
		SelectedExperiences: experienceIDs(result.SelectedExperiences),
		SelectedEducation:   result.SelectedEducation,
		SelectedProjects:    result.SelectedProjects,
		SelectedActivities:  result.SelectedActivities,
		SelectedSkills:      result.SelectedSkills,
		DiffJSON:            diffJSON,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.versions.Insert(ctx, version); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist cv version", err)
	}

	s.recordRun(userID, runID, req, result, time.Since(started))

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"run_id":     runID,
		"version_id": version.ID,
		"degraded":   degraded,
		"duration":   time.Since(started),
	}).Info("tailoring pipeline complete")

	return &TailorResult{
		VersionID: version.ID,
		RunID:     runID,
		Selection: result,
		Degraded:  degraded,
	}, nil
}

// bulletDiff is one experience's original vs rewritten bullets, stored in the
// version's diff_json for the review UI.
type bulletDiff struct {
	Original  []string `json:"original"`
	Rewritten []string `json:"rewritten"`
}

// rewriteSelected rewrites each selected experience's bullets against the JD.
// Any failure degrades that entry to its original bullets rather than failing
// the run.
func (s *tailorService) rewriteSelected(ctx context.Context, userID string, jd *models.ParsedJD, selected []SelectedExperience) (diffJSON []byte, degraded bool) {
	ids := make([]string, 0, len(selected))
	for _, e := range selected {
		ids = append(ids, e.ID)
	}
	rows, err := s.experiences.GetByIDs(ctx, userID, ids)
	if err != nil {
		s.log.WithError(err).Warn("bullet rewrite skipped: experience fetch failed")
		return nil, true
	}

	jdSummary := jd.RoleSummary
	if jdSummary == "" {
		jdSummary = JDEmbedText(jd)
	}

	diffs := make(map[string]bulletDiff, len(rows))
	for _, row := range rows {
		bullets := utils.ExtractBulletTexts(row.Bullets)
		if len(bullets) == 0 {
			continue
		}
		rewritten, err := s.rewriter.RewriteBullets(ctx, jdSummary, bullets)
		if err != nil {
			s.log.WithError(err).WithField("experience_id", row.ID).
				Warn("bullet rewrite failed; keeping original bullets")
			degraded = true
			continue
		}
		diffs[row.ID] = bulletDiff{Original: bullets, Rewritten: rewritten}
	}

	if len(diffs) == 0 {
		return nil, degraded
	}
	raw, err := json.Marshal(diffs)
	if err != nil {
		s.log.WithError(err).Warn("failed to encode bullet diffs")
		return nil, true
	}
	return raw, degraded
}

// recordRun writes the audit document. Fire-and-forget with its own timeout
// so a slow mongo never fails or stalls the pipeline.
func (s *tailorService) recordRun(userID, runID string, req *TailorRequest, result *SelectionResult, took time.Duration) {
	run := &models.SelectionRun{
		RunID:           runID,
		UserID:          userID,
		SelectionMode:   string(req.Mode),
		MaxPages:        req.MaxPages,
		DomainLabel:     string(result.Stats.DomainLabel),
		JDDomain:        req.JD.Domain,
		ExperienceCount: len(result.SelectedExperiences),
		ProjectCount:    len(result.SelectedProjects),
		ActivityCount:   len(result.SelectedActivities),
		SkillCount:      len(result.SelectedSkills),
		EstimatedLines:  result.Stats.EstimatedLines,
		TrimmedEntries:  result.Stats.TrimmedEntries,
		DurationMS:      took.Milliseconds(),
	}
	if req.ApplicationID != nil {
		run.ApplicationID = *req.ApplicationID
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.runs.Create(ctx, run); err != nil {
			s.log.WithError(err).WithField("run_id", runID).Warn("failed to record selection run")
		}
	}()
}

func experienceIDs(selected []SelectedExperience) []string {
	ids := make([]string, 0, len(selected))
	for _, e := range selected {
		ids = append(ids, e.ID)
	}
	return ids
}
