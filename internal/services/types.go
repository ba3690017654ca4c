package services

// SelectionMode controls which slice of the pool selection searches.
type SelectionMode string

const (
	// ModeLibrary searches the user's entire pool.
	ModeLibrary SelectionMode = "library"
	// ModeLatestCV restricts to entities from the most recent upload. With no
	// uploads on record it silently falls back to ModeLibrary.
	ModeLatestCV SelectionMode = "latest_cv"
)

type SelectedExperience struct {
	ID             string  `json:"id"`
	RelevanceScore float64 `json:"relevance_score"`
	Reason         string  `json:"reason"`
}

// SelectionStats carries run metadata for logging and the audit trail; it is
// not part of the selection contract consumed downstream.
type SelectionStats struct {
	DomainLabel    DomainLabel `json:"-"`
	EstimatedLines int         `json:"-"`
	TrimmedEntries int         `json:"-"`
}

type SelectionResult struct {
	SelectedExperiences []SelectedExperience `json:"selected_experiences"`
	SelectedEducation   []string             `json:"selected_education"`
	SelectedProjects    []string             `json:"selected_projects"`
	SelectedActivities  []string             `json:"selected_activities"`
	SelectedSkills      []string             `json:"selected_skills"`

	Stats SelectionStats `json:"-"`
}
