package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/rq1234/cv-tailor/config"
	"github.com/rq1234/cv-tailor/internal/models"
	"github.com/rq1234/cv-tailor/internal/providers/embedding"
	pgrepo "github.com/rq1234/cv-tailor/internal/repositories/postgres"
	"github.com/rq1234/cv-tailor/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	// Ranked candidates fetched before boosting and dedup.
	experienceCandidateLimit = 30
	// Projects/activities are oversampled so dedup losses still fill the quota.
	oversampleFactor = 3
)

// Default per-entry line estimates when a selected id is missing from the
// bullet map (entity deleted mid-run, or unparseable bullets).
const (
	defaultExperienceLines = 3
	defaultProjectLines    = 2
	defaultActivityLines   = 3
)

var universityKeywords = []string{
	"university", "college", "bachelor", "master", "phd",
	"mba", "msc", "bsc", "ba", "bs",
}

// SelectionService picks the subset of the pool that best matches a parsed
// JD and fits the rendered-line budget.
type SelectionService interface {
	Select(ctx context.Context, userID string, jd *models.ParsedJD, maxPages int, mode SelectionMode) (*SelectionResult, error)
}

type selectionService struct {
	experiences pgrepo.ExperienceRepository
	projects    pgrepo.ProjectRepository
	activities  pgrepo.ActivityRepository
	education   pgrepo.EducationRepository
	skills      pgrepo.SkillRepository
	uploads     pgrepo.UploadRepository
	embedder    embedding.Provider
	cfg         config.Settings
	log         *logrus.Logger
}

func NewSelectionService(
	experiences pgrepo.ExperienceRepository,
	projects pgrepo.ProjectRepository,
	activities pgrepo.ActivityRepository,
	education pgrepo.EducationRepository,
	skills pgrepo.SkillRepository,
	uploads pgrepo.UploadRepository,
	embedder embedding.Provider,
	cfg config.Settings,
	log *logrus.Logger,
) SelectionService {
	return &selectionService{
		experiences: experiences,
		projects:    projects,
		activities:  activities,
		education:   education,
		skills:      skills,
		uploads:     uploads,
		embedder:    embedder,
		cfg:         cfg,
		log:         log,
	}
}

func (s *selectionService) Select(ctx context.Context, userID string, jd *models.ParsedJD, maxPages int, mode SelectionMode) (*SelectionResult, error) {
	const op = "SelectionService.Select"

	if userID == "" || jd == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and parsed JD are required", nil)
	}
	if maxPages < 1 {
		maxPages = 1
	}

	// Resolve the upload filter for latest_cv mode.
	var latestUploadID *string
	if mode == ModeLatestCV {
		upload, err := s.uploads.LatestByUser(ctx, userID)
		switch {
		case errors.Is(err, utils.ErrNotFound):
			s.log.WithField("user_id", userID).
				Warn("latest_cv mode with no uploads on record; falling back to library mode")
			mode = ModeLibrary
		case err != nil:
			return nil, utils.E(utils.CodeInternal, op, "failed to resolve latest upload", err)
		default:
			latestUploadID = &upload.ID
		}
	}

	// Embed the JD once and reuse the vector for every entity kind.
	jdVec, err := s.embedder.Embed(ctx, JDEmbedText(jd))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to embed job description", err)
	}
	queryVec := pgvector.NewVector(jdVec)

	label := ClassifyDomain(jd)
	projectLimit, activityLimit := sectionQuotas(label, maxPages)
	maxExperiences := experienceCap(maxPages)
	boostKeys := domainKeywords(jd.Domain)

	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"domain":         jd.Domain,
		"domain_label":   label,
		"mode":           mode,
		"max_pages":      maxPages,
		"project_limit":  projectLimit,
		"activity_limit": activityLimit,
	}).Info("domain-aware selection")

	selected, err := s.selectExperiences(ctx, userID, latestUploadID, queryVec, boostKeys, maxExperiences)
	if err != nil {
		return nil, err
	}

	selectedEducation := s.selectEducation(ctx, userID)
	selectedProjects := s.selectProjects(ctx, userID, latestUploadID, queryVec, projectLimit)
	selectedActivities := s.selectActivities(ctx, userID, latestUploadID, queryVec, activityLimit)

	totalLines, trimmed := s.enforceLineBudget(
		ctx, userID, label, maxPages,
		&selected, &selectedProjects, &selectedActivities,
	)

	selectedSkills := s.selectSkills(ctx, userID, jd)

	return &SelectionResult{
		SelectedExperiences: selected,
		SelectedEducation:   selectedEducation,
		SelectedProjects:    selectedProjects,
		SelectedActivities:  selectedActivities,
		SelectedSkills:      selectedSkills,
		Stats: SelectionStats{
			DomainLabel:    label,
			EstimatedLines: totalLines,
			TrimmedEntries: trimmed,
		},
	}, nil
}

// JDEmbedText concatenates the JD fields the ranking embeds against.
func JDEmbedText(jd *models.ParsedJD) string {
	parts := make([]string, 0, len(jd.RequiredSkills)+len(jd.NiceToHaveSkills)+len(jd.Keywords)+2)
	parts = append(parts, jd.RequiredSkills...)
	parts = append(parts, jd.NiceToHaveSkills...)
	parts = append(parts, jd.Keywords...)
	if jd.RoleSummary != "" {
		parts = append(parts, jd.RoleSummary)
	}
	if jd.Domain != "" {
		parts = append(parts, jd.Domain)
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Work experiences: rank, boost, dedup
// ---------------------------------------------------------------------------

func (s *selectionService) selectExperiences(ctx context.Context, userID string, uploadID *string, query pgvector.Vector, boostKeys map[string]bool, maxExperiences int) ([]SelectedExperience, error) {
	const op = "SelectionService.Select"

	hits, err := s.experiences.SearchByEmbedding(ctx, userID, uploadID, query, experienceCandidateLimit)
	if err != nil {
		s.log.WithError(err).Warn("experience similarity query failed")
		hits = nil
	}

	// Flat additive boost for candidates whose domain tags intersect the
	// JD's domain keyword set, then re-rank.
	type scoredHit struct {
		pgrepo.ExperienceHit
		boosted float64
	}
	scored := make([]scoredHit, 0, len(hits))
	for _, h := range hits {
		boosted := h.Similarity
		if len(boostKeys) > 0 && tagsIntersect(h.DomainTags, boostKeys) {
			boosted += s.cfg.DomainBoost
		}
		scored = append(scored, scoredHit{ExperienceHit: h, boosted: boosted})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].boosted > scored[j].boosted })

	// Two independent dedup signals, first match wins:
	//   1. same variant group AND same company name
	//   2. fuzzy company-token subset + role-prefix containment
	// The fuzzy rule is deliberately permissive; it can both under- and
	// over-merge and that is accepted behavior.
	seenGroups := make(map[string]string)
	var seenRoles []companyRole
	var selected []SelectedExperience

	for _, h := range scored {
		groupKey := h.ID
		if h.VariantGroupID != nil && *h.VariantGroupID != "" {
			groupKey = *h.VariantGroupID
		}
		if prevCompany, ok := seenGroups[groupKey]; ok {
			if prevCompany != "" && h.Company != "" && strings.EqualFold(prevCompany, h.Company) {
				continue
			}
		}
		seenGroups[groupKey] = h.Company

		candidate := newCompanyRole(h.Company, h.RoleTitle)
		if candidate.valid() && matchesSeenRole(candidate, seenRoles) {
			s.log.WithFields(logrus.Fields{
				"company": h.Company,
				"role":    h.RoleTitle,
			}).Info("skipping duplicate experience: similar role at similar company already selected")
			continue
		}
		if candidate.valid() {
			seenRoles = append(seenRoles, candidate)
		}

		company := h.Company
		if company == "" {
			company = "Unknown"
		}
		role := h.RoleTitle
		if role == "" {
			role = "Unknown role"
		}
		selected = append(selected, SelectedExperience{
			ID:             h.ID,
			RelevanceScore: roundScore(h.boosted),
			Reason:         fmt.Sprintf("Matched with %.0f%% similarity - %s, %s", h.boosted*100, company, role),
		})
		if len(selected) >= maxExperiences {
			break
		}
	}

	if len(selected) == 0 {
		return nil, utils.E(utils.CodeFailedPrecondition, op,
			"no experiences with embeddings found; run the re-embed backfill and retry", nil)
	}
	return selected, nil
}

// companyRole is the fuzzy dedup key: lowercased company tokens plus the
// first 20 chars of the role title.
type companyRole struct {
	tokens     map[string]bool
	rolePrefix string
}

const rolePrefixLen = 20

func newCompanyRole(company, role string) companyRole {
	tokens := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(strings.TrimSpace(company))) {
		tokens[w] = true
	}
	prefix := strings.ToLower(strings.TrimSpace(role))
	if len(prefix) > rolePrefixLen {
		prefix = prefix[:rolePrefixLen]
	}
	return companyRole{tokens: tokens, rolePrefix: prefix}
}

func (c companyRole) valid() bool {
	return len(c.tokens) > 0 && c.rolePrefix != ""
}

// matchesSeenRole reports whether a candidate fuzzy-matches any already
// selected entry: company token sets where one is a subset of the other
// ("GAO Capital" vs "GAO Capital Singapore"), with equal or contained role
// prefixes ("Intern" in "Investment Intern").
func matchesSeenRole(c companyRole, seen []companyRole) bool {
	for _, s := range seen {
		shared := 0
		for t := range c.tokens {
			if s.tokens[t] {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		if shared != len(c.tokens) && shared != len(s.tokens) {
			continue
		}
		if c.rolePrefix == s.rolePrefix ||
			strings.Contains(c.rolePrefix, s.rolePrefix) ||
			strings.Contains(s.rolePrefix, c.rolePrefix) {
			return true
		}
	}
	return false
}

func tagsIntersect(tags []string, keys map[string]bool) bool {
	for _, t := range tags {
		if keys[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}

// ---------------------------------------------------------------------------
// Education: exactly one entry when the pool is non-empty
// ---------------------------------------------------------------------------

func (s *selectionService) selectEducation(ctx context.Context, userID string) []string {
	rows, err := s.education.ListByUser(ctx, userID)
	if err != nil {
		s.log.WithError(err).Warn("education fetch failed")
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	preferred := make([]models.Education, 0, len(rows))
	for _, e := range rows {
		if isUniversityLevel(e) {
			preferred = append(preferred, e)
		}
	}
	candidates := rows
	if len(preferred) > 0 {
		candidates = preferred
	}

	// Rows arrive most-recent-first, so on content ties the newest entry
	// wins by keeping the first maximum.
	chosen := candidates[0]
	best := countEducationContent(chosen)
	for _, e := range candidates[1:] {
		if n := countEducationContent(e); n > best {
			chosen, best = e, n
		}
	}
	return []string{chosen.ID}
}

func isUniversityLevel(e models.Education) bool {
	text := strings.ToLower(e.Institution + " " + e.Degree)
	for _, k := range universityKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// countEducationContent counts achievements plus modules so richer entries
// win. Both fields are JSONB and may be a plain list or {"items": [...]}.
func countEducationContent(e models.Education) int {
	return countJSONItems(e.Achievements) + countJSONItems(e.Modules)
}

func countJSONItems(raw []byte) int {
	if len(raw) == 0 {
		return 0
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return len(list)
	}
	var obj struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return len(obj.Items)
	}
	return 0
}

// ---------------------------------------------------------------------------
// Projects and activities: oversample, dedup, truncate
// ---------------------------------------------------------------------------

func (s *selectionService) selectProjects(ctx context.Context, userID string, uploadID *string, query pgvector.Vector, limit int) []string {
	if limit <= 0 {
		return nil
	}

	hits, err := s.projects.SearchByEmbedding(ctx, userID, uploadID, query, limit*oversampleFactor)
	if err != nil {
		s.log.WithError(err).Warn("project similarity query failed")
		hits = nil
	}

	var selected []string
	seenNames := make(map[string]bool)
	seenGroups := make(map[string]bool)

	for _, h := range hits {
		groupKey := h.ID
		if h.VariantGroupID != nil && *h.VariantGroupID != "" {
			groupKey = *h.VariantGroupID
		}
		if seenGroups[groupKey] {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(h.Name))
		if name != "" && seenNames[name] {
			s.log.WithField("project", h.Name).Info("skipping duplicate project")
			continue
		}
		seenGroups[groupKey] = true
		if name != "" {
			seenNames[name] = true
		}
		selected = append(selected, h.ID)
		if len(selected) >= limit {
			break
		}
	}

	if len(selected) > 0 {
		return selected
	}

	// No embedded projects yet: unranked fetch, same dedup rules.
	rows, err := s.projects.ListByUser(ctx, userID, uploadID, limit*oversampleFactor)
	if err != nil {
		s.log.WithError(err).Warn("project fallback fetch failed")
		return nil
	}
	for _, p := range rows {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name != "" && seenNames[name] {
			continue
		}
		if name != "" {
			seenNames[name] = true
		}
		selected = append(selected, p.ID)
		if len(selected) >= limit {
			break
		}
	}
	return selected
}

func (s *selectionService) selectActivities(ctx context.Context, userID string, uploadID *string, query pgvector.Vector, limit int) []string {
	if limit <= 0 {
		return nil
	}

	hits, err := s.activities.SearchByEmbedding(ctx, userID, uploadID, query, limit*oversampleFactor)
	if err != nil {
		s.log.WithError(err).Warn("activity similarity query failed")
		hits = nil
	}

	var selected []string
	seenKeys := make(map[string]bool)
	seenGroups := make(map[string]bool)

	for _, h := range hits {
		groupKey := h.ID
		if h.VariantGroupID != nil && *h.VariantGroupID != "" {
			groupKey = *h.VariantGroupID
		}
		if seenGroups[groupKey] {
			continue
		}
		key := activityDedupKey(h.Organization, h.RoleTitle)
		hasOrg := strings.TrimSpace(h.Organization) != ""
		if hasOrg && seenKeys[key] {
			s.log.WithFields(logrus.Fields{
				"organization": h.Organization,
				"role":         h.RoleTitle,
			}).Info("skipping duplicate activity")
			continue
		}
		seenGroups[groupKey] = true
		if hasOrg {
			seenKeys[key] = true
		}
		selected = append(selected, h.ID)
		if len(selected) >= limit {
			break
		}
	}

	if len(selected) > 0 {
		return selected
	}

	rows, err := s.activities.ListByUser(ctx, userID, uploadID, limit*oversampleFactor)
	if err != nil {
		s.log.WithError(err).Warn("activity fallback fetch failed")
		return nil
	}
	for _, a := range rows {
		key := activityDedupKey(a.Organization, a.RoleTitle)
		hasOrg := strings.TrimSpace(a.Organization) != ""
		if hasOrg && seenKeys[key] {
			continue
		}
		if hasOrg {
			seenKeys[key] = true
		}
		selected = append(selected, a.ID)
		if len(selected) >= limit {
			break
		}
	}
	return selected
}

func activityDedupKey(org, role string) string {
	prefix := strings.ToLower(strings.TrimSpace(role))
	if len(prefix) > rolePrefixLen {
		prefix = prefix[:rolePrefixLen]
	}
	return strings.ToLower(strings.TrimSpace(org)) + "|" + prefix
}

// ---------------------------------------------------------------------------
// Rendered-line budget
// ---------------------------------------------------------------------------

// enforceLineBudget trims the selection until it fits the page budget.
// Trim order follows the domain: tech keeps projects (activities go first),
// consulting/finance keeps leadership (projects go first). Experiences are
// the last resort and never drop below the configured floor, so a selection
// can legitimately end over budget.
func (s *selectionService) enforceLineBudget(
	ctx context.Context, userID string, label DomainLabel, maxPages int,
	experiences *[]SelectedExperience, projects, activities *[]string,
) (totalLines, trimmed int) {
	budget := s.cfg.LinesPerPage * maxPages

	expLines := s.experienceLineEstimates(ctx, userID, *experiences)
	projLines := s.projectLineEstimates(ctx, userID, *projects)
	actLines := s.activityLineEstimates(ctx, userID, *activities)

	for _, e := range *experiences {
		totalLines += 1 + lineEstimate(expLines, e.ID, defaultExperienceLines)
	}
	for _, id := range *projects {
		totalLines += 1 + lineEstimate(projLines, id, defaultProjectLines)
	}
	for _, id := range *activities {
		totalLines += 1 + lineEstimate(actLines, id, defaultActivityLines)
	}

	if totalLines <= budget {
		return totalLines, 0
	}

	s.log.WithFields(logrus.Fields{
		"estimated_lines": totalLines,
		"budget":          budget,
		"max_pages":       maxPages,
	}).Info("over page budget; trimming")

	type trimTarget struct {
		list         *[]string
		counts       map[string]int
		defaultLines int
	}
	var order []trimTarget
	if label == DomainTech {
		order = []trimTarget{
			{activities, actLines, defaultActivityLines},
			{projects, projLines, defaultProjectLines},
		}
	} else {
		order = []trimTarget{
			{projects, projLines, defaultProjectLines},
			{activities, actLines, defaultActivityLines},
		}
	}

	for _, target := range order {
		for totalLines > budget && len(*target.list) > 0 {
			last := (*target.list)[len(*target.list)-1]
			*target.list = (*target.list)[:len(*target.list)-1]
			totalLines -= 1 + lineEstimate(target.counts, last, target.defaultLines)
			trimmed++
		}
	}

	// Last resort: trim experiences down to the floor, never below.
	for totalLines > budget && len(*experiences) > s.cfg.ExperienceFloor {
		last := (*experiences)[len(*experiences)-1]
		*experiences = (*experiences)[:len(*experiences)-1]
		totalLines -= 1 + lineEstimate(expLines, last.ID, defaultExperienceLines)
		trimmed++
	}

	s.log.WithFields(logrus.Fields{
		"estimated_lines": totalLines,
		"experiences":     len(*experiences),
		"projects":        len(*projects),
		"activities":      len(*activities),
	}).Info("after trimming")

	return totalLines, trimmed
}

func lineEstimate(counts map[string]int, id string, def int) int {
	if n, ok := counts[id]; ok {
		return n
	}
	return def
}

func (s *selectionService) experienceLineEstimates(ctx context.Context, userID string, selected []SelectedExperience) map[string]int {
	counts := make(map[string]int, len(selected))
	if len(selected) == 0 {
		return counts
	}
	ids := make([]string, 0, len(selected))
	for _, e := range selected {
		ids = append(ids, e.ID)
	}
	rows, err := s.experiences.GetByIDs(ctx, userID, ids)
	if err != nil {
		s.log.WithError(err).Warn("experience bullet fetch failed; using default line estimates")
		return counts
	}
	for _, r := range rows {
		counts[r.ID] = estimateRenderedLines(utils.ExtractBulletTexts(r.Bullets), s.cfg.BulletWrapChars, s.cfg.BulletWrap3Char)
	}
	return counts
}

func (s *selectionService) projectLineEstimates(ctx context.Context, userID string, ids []string) map[string]int {
	counts := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return counts
	}
	rows, err := s.projects.GetByIDs(ctx, userID, ids)
	if err != nil {
		s.log.WithError(err).Warn("project bullet fetch failed; using default line estimates")
		return counts
	}
	for _, r := range rows {
		counts[r.ID] = estimateRenderedLines(utils.ExtractBulletTexts(r.Bullets), s.cfg.BulletWrapChars, s.cfg.BulletWrap3Char)
	}
	return counts
}

func (s *selectionService) activityLineEstimates(ctx context.Context, userID string, ids []string) map[string]int {
	counts := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return counts
	}
	rows, err := s.activities.GetByIDs(ctx, userID, ids)
	if err != nil {
		s.log.WithError(err).Warn("activity bullet fetch failed; using default line estimates")
		return counts
	}
	for _, r := range rows {
		counts[r.ID] = estimateRenderedLines(utils.ExtractBulletTexts(r.Bullets), s.cfg.BulletWrapChars, s.cfg.BulletWrap3Char)
	}
	return counts
}

// ---------------------------------------------------------------------------
// Skills: JD-matching first, capped
// ---------------------------------------------------------------------------

func (s *selectionService) selectSkills(ctx context.Context, userID string, jd *models.ParsedJD) []string {
	rows, err := s.skills.ListCandidates(ctx, userID)
	if err != nil {
		s.log.WithError(err).Warn("skill fetch failed")
		return nil
	}

	jdTerms := make(map[string]bool)
	for _, list := range [][]string{jd.RequiredSkills, jd.NiceToHaveSkills, jd.ToolsAndTechnologies, jd.Keywords} {
		for _, term := range list {
			jdTerms[strings.ToLower(term)] = true
		}
	}

	var matched, unmatched []string
	seenNames := make(map[string]bool)
	for _, sk := range rows {
		name := strings.ToLower(strings.TrimSpace(sk.Name))
		if name == "" || seenNames[name] {
			continue
		}
		seenNames[name] = true

		// The document template has no Tools section.
		if strings.EqualFold(sk.Category, models.SkillCategoryTool) {
			continue
		}

		if skillMatchesJD(name, jdTerms) {
			matched = append(matched, sk.ID)
		} else {
			unmatched = append(unmatched, sk.ID)
		}
	}

	selected := matched
	if len(selected) > s.cfg.MaxSkills {
		selected = selected[:s.cfg.MaxSkills]
	}
	if remaining := s.cfg.MaxSkills - len(selected); remaining > 0 {
		if remaining > len(unmatched) {
			remaining = len(unmatched)
		}
		selected = append(selected, unmatched[:remaining]...)
	}

	s.log.WithFields(logrus.Fields{
		"jd_matched": len(matched),
		"selected":   len(selected),
		"cap":        s.cfg.MaxSkills,
	}).Info("skills selected")

	return selected
}

// skillMatchesJD: exact or substring match in either direction.
func skillMatchesJD(name string, jdTerms map[string]bool) bool {
	for term := range jdTerms {
		if name == term || strings.Contains(term, name) || strings.Contains(name, term) {
			return true
		}
	}
	return false
}
