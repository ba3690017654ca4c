package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// WorkExperience is one entry of the experience pool. Entries from different
// CV uploads that describe the same underlying job share a VariantGroupID;
// exactly one entry per group carries IsPrimaryVariant.
type WorkExperience struct {
	ID             string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         string  `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	UploadSourceID *string `gorm:"column:upload_source_id;type:uuid" json:"upload_source_id,omitempty"`

	Company   string     `gorm:"column:company;type:text" json:"company"`
	RoleTitle string     `gorm:"column:role_title;type:text" json:"role_title"`
	Location  string     `gorm:"column:location;type:text" json:"location"`
	DateStart *time.Time `gorm:"column:date_start;type:date" json:"date_start,omitempty"`
	DateEnd   *time.Time `gorm:"column:date_end;type:date" json:"date_end,omitempty"`
	IsCurrent bool       `gorm:"column:is_current" json:"is_current"`

	// JSONB list of bullet objects ({"text": ..., "domain_tags": [...]}) or
	// plain strings, as produced by the structurer.
	Bullets  datatypes.JSON `gorm:"column:bullets;type:jsonb" json:"bullets"`
	RawBlock string         `gorm:"column:raw_block;type:text" json:"raw_block"`

	DomainTags pq.StringArray `gorm:"column:domain_tags;type:text[]" json:"domain_tags"`
	SkillTags  pq.StringArray `gorm:"column:skill_tags;type:text[]" json:"skill_tags"`

	// pgvector
	Embedding *pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`

	// Dedup metadata
	VariantGroupID   *string  `gorm:"column:variant_group_id;type:uuid;index" json:"variant_group_id,omitempty"`
	IsPrimaryVariant bool     `gorm:"column:is_primary_variant;default:true" json:"is_primary_variant"`
	SimilarityScore  *float64 `gorm:"column:similarity_score;type:float" json:"similarity_score,omitempty"`

	CompanyConfidence *float64       `gorm:"column:company_confidence;type:float" json:"company_confidence,omitempty"`
	DatesConfidence   *float64       `gorm:"column:dates_confidence;type:float" json:"dates_confidence,omitempty"`
	IsReviewed        bool           `gorm:"column:is_reviewed" json:"is_reviewed"`
	NeedsReview       bool           `gorm:"column:needs_review" json:"needs_review"`
	ReviewReason      string         `gorm:"column:review_reason;type:text" json:"review_reason,omitempty"`
	UserCorrections   datatypes.JSON `gorm:"column:user_corrections;type:jsonb" json:"user_corrections,omitempty"`
}

func (WorkExperience) TableName() string { return "work_experiences" }
