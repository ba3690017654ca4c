package models

import "time"

// SelectionRun is the mongo audit document written after each selection
// invocation. Fire-and-forget; a TTL index expires documents at ExpiresAt.
type SelectionRun struct {
	RunID         string `bson:"run_id" json:"run_id"`
	UserID        string `bson:"user_id" json:"user_id"`
	ApplicationID string `bson:"application_id,omitempty" json:"application_id,omitempty"`

	SelectionMode string `bson:"selection_mode" json:"selection_mode"`
	MaxPages      int    `bson:"max_pages" json:"max_pages"`
	DomainLabel   string `bson:"domain_label" json:"domain_label"`
	JDDomain      string `bson:"jd_domain,omitempty" json:"jd_domain,omitempty"`

	ExperienceCount int `bson:"experience_count" json:"experience_count"`
	ProjectCount    int `bson:"project_count" json:"project_count"`
	ActivityCount   int `bson:"activity_count" json:"activity_count"`
	SkillCount      int `bson:"skill_count" json:"skill_count"`
	EstimatedLines  int `bson:"estimated_lines" json:"estimated_lines"`
	TrimmedEntries  int `bson:"trimmed_entries" json:"trimmed_entries"`

	DurationMS int64     `bson:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt  time.Time `bson:"expires_at" json:"expires_at"`
}
