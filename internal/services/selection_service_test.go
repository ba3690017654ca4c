package services

import (
	"context"
	"strings"
	"testing"

	"github.com/rq1234/cv-tailor/config"
	"github.com/rq1234/cv-tailor/internal/models"
	pgrepo "github.com/rq1234/cv-tailor/internal/repositories/postgres"
	"github.com/rq1234/cv-tailor/internal/utils"
)

type selectionFixture struct {
	experiences *fakeExperienceRepo
	projects    *fakeProjectRepo
	activities  *fakeActivityRepo
	education   *fakeEducationRepo
	skills      *fakeSkillRepo
	uploads     *fakeUploadRepo
	embedder    *fakeEmbedder
	settings    config.Settings
}

func newSelectionFixture() *selectionFixture {
	return &selectionFixture{
		experiences: &fakeExperienceRepo{},
		projects:    &fakeProjectRepo{},
		activities:  &fakeActivityRepo{},
		education:   &fakeEducationRepo{},
		skills:      &fakeSkillRepo{},
		uploads:     &fakeUploadRepo{},
		embedder:    &fakeEmbedder{},
		settings:    testSettings(),
	}
}

func (f *selectionFixture) service() SelectionService {
	return NewSelectionService(
		f.experiences, f.projects, f.activities,
		f.education, f.skills, f.uploads,
		f.embedder, f.settings, testLogger(),
	)
}

func defaultJD() *models.ParsedJD {
	return &models.ParsedJD{
		RequiredSkills: []string{"communication"},
		Domain:         "Marketing",
		RoleSummary:    "Brand manager",
	}
}

func TestSelectRequiresEmbeddedExperiences(t *testing.T) {
	f := newSelectionFixture()
	_, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if !utils.IsCode(err, utils.CodeFailedPrecondition) {
		t.Fatalf("expected FAILED_PRECONDITION, got %v", err)
	}
}

func TestSelectJDEmbedFailureIsHard(t *testing.T) {
	f := newSelectionFixture()
	f.embedder.err = context.DeadlineExceeded
	_, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
}

func TestSelectRanksAndCapsExperiences(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.91},
		{ID: "e2", Company: "Globex", RoleTitle: "Analyst", Similarity: 0.85},
		{ID: "e3", Company: "Initech", RoleTitle: "Manager", Similarity: 0.80},
		{ID: "e4", Company: "Umbrella", RoleTitle: "Lead", Similarity: 0.75},
		{ID: "e5", Company: "Hooli", RoleTitle: "Intern", Similarity: 0.70},
	}

	res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(res.SelectedExperiences) != 4 {
		t.Fatalf("selected %d experiences, want 4 on a 1-page budget", len(res.SelectedExperiences))
	}
	if res.SelectedExperiences[0].ID != "e1" {
		t.Errorf("top pick = %s, want e1", res.SelectedExperiences[0].ID)
	}
	first := res.SelectedExperiences[0]
	if first.RelevanceScore != 0.91 {
		t.Errorf("relevance = %v, want 0.91", first.RelevanceScore)
	}
	if !strings.Contains(first.Reason, "91% similarity") || !strings.Contains(first.Reason, "Acme") {
		t.Errorf("unexpected reason %q", first.Reason)
	}
}

func TestSelectDomainBoostReranks(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "plain", Company: "Globex", RoleTitle: "Analyst", Similarity: 0.75},
		{ID: "tagged", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.70,
			DomainTags: []string{"Software"}},
	}
	jd := &models.ParsedJD{Domain: "Software Engineering", RoleSummary: "Backend"}

	res, err := f.service().Select(context.Background(), "u1", jd, 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	// 0.70 + 0.08 boost beats 0.75.
	if res.SelectedExperiences[0].ID != "tagged" {
		t.Errorf("top pick = %s, want the domain-tagged candidate", res.SelectedExperiences[0].ID)
	}
	if res.SelectedExperiences[0].RelevanceScore != 0.78 {
		t.Errorf("boosted relevance = %v, want 0.78", res.SelectedExperiences[0].RelevanceScore)
	}
}

func TestSelectSkipsFuzzyCompanyRoleDuplicates(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "GAO Capital", RoleTitle: "Investment Intern", Similarity: 0.90},
		{ID: "e2", Company: "GAO Capital Singapore", RoleTitle: "Intern", Similarity: 0.88},
		{ID: "e3", Company: "Globex", RoleTitle: "Intern", Similarity: 0.85},
	}

	res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	ids := selectedIDs(res.SelectedExperiences)
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e3" {
		t.Errorf("selected %v, want [e1 e3]: the subset company with contained role must be skipped", ids)
	}
}

func TestSelectVariantGroupDedup(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", VariantGroupID: strPtr("g1"), Similarity: 0.90},
		// Same group, same company: a variant of e1, skipped.
		{ID: "e2", Company: "acme", RoleTitle: "Software Engineer II", VariantGroupID: strPtr("g1"), Similarity: 0.88},
		// Same group but different company: over-merged group, kept.
		{ID: "e3", Company: "Globex", RoleTitle: "Analyst", VariantGroupID: strPtr("g1"), Similarity: 0.85},
	}

	res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	ids := selectedIDs(res.SelectedExperiences)
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e3" {
		t.Errorf("selected %v, want [e1 e3]", ids)
	}
}

func TestSelectEducationSingleton(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.9},
	}
	f.education.rows = []models.Education{
		{ID: "hs", Institution: "Central High School", Degree: "Diploma"},
		{ID: "uni-a", Institution: "State University", Degree: "BSc Physics",
			Achievements: bulletsJSON("Dean's list")},
		{ID: "uni-b", Institution: "National University", Degree: "MSc CS",
			Achievements: bulletsJSON("Dean's list", "Scholarship"),
			Modules:      bulletsJSON("Algorithms")},
	}

	res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(res.SelectedEducation) != 1 || res.SelectedEducation[0] != "uni-b" {
		t.Errorf("education = %v, want [uni-b]: richest university entry", res.SelectedEducation)
	}
}

func TestSelectEducationTieKeepsMostRecent(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.9},
	}
	// Rows arrive most-recent-first; equal content must keep the first.
	f.education.rows = []models.Education{
		{ID: "newer", Institution: "State University", Degree: "MSc"},
		{ID: "older", Institution: "Other University", Degree: "BSc"},
	}

	res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(res.SelectedEducation) != 1 || res.SelectedEducation[0] != "newer" {
		t.Errorf("education = %v, want [newer]", res.SelectedEducation)
	}
}

func TestSelectSkillsPartitioning(t *testing.T) {
	f := newSelectionFixture()
	f.settings.MaxSkills = 3
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.9},
	}
	f.skills.rows = []models.Skill{
		{ID: "s1", Name: "Excel", Category: models.SkillCategoryTechnical},
		{ID: "s2", Name: "Python", Category: models.SkillCategoryTechnical},
		{ID: "s3", Name: "python", Category: models.SkillCategoryLanguage}, // dup name
		{ID: "s4", Name: "Jira", Category: models.SkillCategoryTool},      // tools excluded
		{ID: "s5", Name: "SQL", Category: models.SkillCategoryTechnical},
		{ID: "s6", Name: "Writing", Category: models.SkillCategorySoft},
	}
	jd := &models.ParsedJD{
		RequiredSkills:       []string{"Python"},
		ToolsAndTechnologies: []string{"SQL"},
		Domain:               "Marketing",
	}

	res, err := f.service().Select(context.Background(), "u1", jd, 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	want := []string{"s2", "s5", "s1"} // JD matches first, then pool order fill
	if len(res.SelectedSkills) != 3 {
		t.Fatalf("selected %d skills, want 3", len(res.SelectedSkills))
	}
	for i, id := range want {
		if res.SelectedSkills[i] != id {
			t.Errorf("skills = %v, want %v", res.SelectedSkills, want)
			break
		}
	}
}

func TestSelectTechQuotaSkipsActivities(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.9},
	}
	f.activities.hits = []pgrepo.ActivityHit{
		{ID: "a1", Organization: "Chess Club", RoleTitle: "President", Similarity: 0.8},
	}
	jd := &models.ParsedJD{Domain: "Software Engineering"}

	res, err := f.service().Select(context.Background(), "u1", jd, 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(res.SelectedActivities) != 0 {
		t.Errorf("tech 1-page quota is zero activities, got %v", res.SelectedActivities)
	}
	if res.Stats.DomainLabel != DomainTech {
		t.Errorf("label = %q, want tech", res.Stats.DomainLabel)
	}
}

func TestSelectProjectFallbackWithoutEmbeddings(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.9},
	}
	f.projects.fallback = []models.Project{
		{ID: "p1", Name: "Tracker"},
		{ID: "p2", Name: "tracker"}, // same name, skipped
		{ID: "p3", Name: "Budgeter"},
	}

	res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(res.SelectedProjects) != 2 || res.SelectedProjects[0] != "p1" || res.SelectedProjects[1] != "p3" {
		t.Errorf("projects = %v, want [p1 p3]", res.SelectedProjects)
	}
}

func TestSelectLatestCVFallsBackToLibrary(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.9},
	}
	// No uploads on record; latest_cv must silently widen to the library.
	res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLatestCV)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(res.SelectedExperiences) != 1 {
		t.Errorf("selected %d experiences, want 1", len(res.SelectedExperiences))
	}
}

func TestSelectEnforcesLineBudget(t *testing.T) {
	f := newSelectionFixture()

	longBullet := strings.Repeat("x", 100) // 2 rendered lines
	sixBullets := bulletsJSON(longBullet, longBullet, longBullet, longBullet, longBullet, longBullet)
	shortBullets := bulletsJSON("done", "more")

	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "A", RoleTitle: "R1", Similarity: 0.9},
		{ID: "e2", Company: "B", RoleTitle: "R2", Similarity: 0.8},
		{ID: "e3", Company: "C", RoleTitle: "R3", Similarity: 0.7},
		{ID: "e4", Company: "D", RoleTitle: "R4", Similarity: 0.6},
	}
	f.experiences.rows = []models.WorkExperience{
		{ID: "e1", Bullets: sixBullets},
		{ID: "e2", Bullets: sixBullets},
		{ID: "e3", Bullets: sixBullets},
		{ID: "e4", Bullets: sixBullets},
	}
	f.projects.hits = []pgrepo.ProjectHit{
		{ID: "p1", Name: "Tracker", Similarity: 0.8},
		{ID: "p2", Name: "Budgeter", Similarity: 0.7},
	}
	f.projects.rows = []models.Project{
		{ID: "p1", Bullets: shortBullets},
		{ID: "p2", Bullets: shortBullets},
	}
	f.activities.hits = []pgrepo.ActivityHit{
		{ID: "a1", Organization: "Club", RoleTitle: "Lead", Similarity: 0.8},
	}
	f.activities.rows = []models.Activity{
		{ID: "a1", Bullets: shortBullets},
	}

	// Default domain: 13 lines per experience (header + 12), 3 per project
	// and activity. 4+2+1 entries come to 61 against a budget of 34.
	res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if len(res.SelectedProjects) != 0 || len(res.SelectedActivities) != 0 {
		t.Errorf("projects %v / activities %v survived trimming", res.SelectedProjects, res.SelectedActivities)
	}
	if len(res.SelectedExperiences) != 3 {
		t.Errorf("experiences trimmed to %d, want the floor of 3", len(res.SelectedExperiences))
	}
	if res.Stats.TrimmedEntries != 4 {
		t.Errorf("trimmed %d entries, want 4", res.Stats.TrimmedEntries)
	}
	// 3 experiences at 13 lines each: still over budget, floor wins.
	if res.Stats.EstimatedLines != 39 {
		t.Errorf("estimated lines = %d, want 39", res.Stats.EstimatedLines)
	}
}

func TestSelectDeterministicOnTies(t *testing.T) {
	f := newSelectionFixture()
	f.experiences.hits = []pgrepo.ExperienceHit{
		{ID: "e1", Company: "Acme", RoleTitle: "Engineer", Similarity: 0.8},
		{ID: "e2", Company: "Globex", RoleTitle: "Analyst", Similarity: 0.8},
	}

	for i := 0; i < 5; i++ {
		res, err := f.service().Select(context.Background(), "u1", defaultJD(), 1, ModeLibrary)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		ids := selectedIDs(res.SelectedExperiences)
		if ids[0] != "e1" || ids[1] != "e2" {
			t.Fatalf("tie order changed on run %d: %v", i, ids)
		}
	}
}

func selectedIDs(selected []SelectedExperience) []string {
	ids := make([]string, 0, len(selected))
	for _, e := range selected {
		ids = append(ids, e.ID)
	}
	return ids
}
