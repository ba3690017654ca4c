package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// CvVersion snapshots one selection result (plus any downstream rewriting)
// for an application. Selection itself is a transient computation; this is
// its persisted form.
type CvVersion struct {
	ID            string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        string  `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	ApplicationID *string `gorm:"column:application_id;type:uuid" json:"application_id,omitempty"`

	SelectedExperiences pq.StringArray `gorm:"column:selected_experiences;type:uuid[]" json:"selected_experiences"`
	SelectedEducation   pq.StringArray `gorm:"column:selected_education;type:uuid[]" json:"selected_education"`
	SelectedProjects    pq.StringArray `gorm:"column:selected_projects;type:uuid[]" json:"selected_projects"`
	SelectedActivities  pq.StringArray `gorm:"column:selected_activities;type:uuid[]" json:"selected_activities"`
	SelectedSkills      pq.StringArray `gorm:"column:selected_skills;type:uuid[]" json:"selected_skills"`

	// Rewritten bullets and the user's accept/reject state, keyed by entity id.
	DiffJSON        datatypes.JSON `gorm:"column:diff_json;type:jsonb" json:"diff_json,omitempty"`
	AcceptedChanges datatypes.JSON `gorm:"column:accepted_changes;type:jsonb" json:"accepted_changes,omitempty"`
	RejectedChanges datatypes.JSON `gorm:"column:rejected_changes;type:jsonb" json:"rejected_changes,omitempty"`
	FinalCvJSON     datatypes.JSON `gorm:"column:final_cv_json;type:jsonb" json:"final_cv_json,omitempty"`

	PdfPath   string    `gorm:"column:pdf_path;type:text" json:"pdf_path,omitempty"`
	DocxPath  string    `gorm:"column:docx_path;type:text" json:"docx_path,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (CvVersion) TableName() string { return "cv_versions" }
