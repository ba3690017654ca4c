package services

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"
	"github.com/rq1234/cv-tailor/config"
	"github.com/rq1234/cv-tailor/internal/models"
	pgrepo "github.com/rq1234/cv-tailor/internal/repositories/postgres"
	"github.com/rq1234/cv-tailor/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

func testSettings() config.Settings {
	return config.Settings{
		VariantThreshold:       0.75,
		NearDuplicateThreshold: 0.92,
		DomainBoost:            0.08,
		MaxSkills:              25,
		ExperienceFloor:        3,
		LinesPerPage:           34,
		BulletWrapChars:        85,
		BulletWrap3Char:        170,
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func bulletsJSON(texts ...string) datatypes.JSON {
	out := []byte(`[`)
	for i, t := range texts {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, t...)
		out = append(out, '"')
	}
	return append(out, ']')
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Close() error { return nil }

type fakeExperienceRepo struct {
	hits       []pgrepo.ExperienceHit
	similar    []pgrepo.SimilarHit
	rows       []models.WorkExperience
	searchErr  error
	similarErr error
	inserted   []*models.WorkExperience
}

func (f *fakeExperienceRepo) Insert(ctx context.Context, e *models.WorkExperience) error {
	f.inserted = append(f.inserted, e)
	return nil
}

func (f *fakeExperienceRepo) Save(ctx context.Context, e *models.WorkExperience) error { return nil }

func (f *fakeExperienceRepo) GetByID(ctx context.Context, userID, id string) (*models.WorkExperience, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeExperienceRepo) GetByIDs(ctx context.Context, userID string, ids []string) ([]models.WorkExperience, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.WorkExperience
	for _, r := range f.rows {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeExperienceRepo) SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]pgrepo.ExperienceHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

func (f *fakeExperienceRepo) FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]pgrepo.SimilarHit, error) {
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	return f.similar, nil
}

func (f *fakeExperienceRepo) ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

type fakeProjectRepo struct {
	hits     []pgrepo.ProjectHit
	rows     []models.Project
	fallback []models.Project
}

func (f *fakeProjectRepo) Insert(ctx context.Context, p *models.Project) error { return nil }
func (f *fakeProjectRepo) Save(ctx context.Context, p *models.Project) error   { return nil }

func (f *fakeProjectRepo) GetByID(ctx context.Context, userID, id string) (*models.Project, error) {
	return nil, errors.New("record not found")
}

func (f *fakeProjectRepo) GetByIDs(ctx context.Context, userID string, ids []string) ([]models.Project, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Project
	for _, r := range f.rows {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]pgrepo.ProjectHit, error) {
	if len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

func (f *fakeProjectRepo) FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]pgrepo.SimilarHit, error) {
	return nil, nil
}

func (f *fakeProjectRepo) ListByUser(ctx context.Context, userID string, uploadSourceID *string, limit int) ([]models.Project, error) {
	if len(f.fallback) > limit {
		return f.fallback[:limit], nil
	}
	return f.fallback, nil
}

func (f *fakeProjectRepo) ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

type fakeActivityRepo struct {
	hits     []pgrepo.ActivityHit
	rows     []models.Activity
	fallback []models.Activity
}

func (f *fakeActivityRepo) Insert(ctx context.Context, a *models.Activity) error { return nil }
func (f *fakeActivityRepo) Save(ctx context.Context, a *models.Activity) error   { return nil }

func (f *fakeActivityRepo) GetByID(ctx context.Context, userID, id string) (*models.Activity, error) {
	return nil, errors.New("record not found")
}

func (f *fakeActivityRepo) GetByIDs(ctx context.Context, userID string, ids []string) ([]models.Activity, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Activity
	for _, r := range f.rows {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeActivityRepo) SearchByEmbedding(ctx context.Context, userID string, uploadSourceID *string, query pgvector.Vector, limit int) ([]pgrepo.ActivityHit, error) {
	if len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

func (f *fakeActivityRepo) FindSimilar(ctx context.Context, userID string, query pgvector.Vector, threshold float64, limit int) ([]pgrepo.SimilarHit, error) {
	return nil, nil
}

func (f *fakeActivityRepo) ListByUser(ctx context.Context, userID string, uploadSourceID *string, limit int) ([]models.Activity, error) {
	if len(f.fallback) > limit {
		return f.fallback[:limit], nil
	}
	return f.fallback, nil
}

func (f *fakeActivityRepo) ListIDsMissingEmbedding(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

type fakeEducationRepo struct {
	rows []models.Education
}

func (f *fakeEducationRepo) Insert(ctx context.Context, e *models.Education) error { return nil }

func (f *fakeEducationRepo) ListByUser(ctx context.Context, userID string) ([]models.Education, error) {
	return f.rows, nil
}

type fakeSkillRepo struct {
	rows []models.Skill
}

func (f *fakeSkillRepo) Insert(ctx context.Context, s *models.Skill) error { return nil }

func (f *fakeSkillRepo) ListCandidates(ctx context.Context, userID string) ([]models.Skill, error) {
	return f.rows, nil
}

type fakeUploadRepo struct {
	latest *models.CvUpload
}

func (f *fakeUploadRepo) Insert(ctx context.Context, u *models.CvUpload) error { return nil }

func (f *fakeUploadRepo) LatestByUser(ctx context.Context, userID string) (*models.CvUpload, error) {
	if f.latest == nil {
		return nil, utils.ErrNotFound
	}
	return f.latest, nil
}
