package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Project struct {
	ID             string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         string  `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	UploadSourceID *string `gorm:"column:upload_source_id;type:uuid" json:"upload_source_id,omitempty"`

	Name        string     `gorm:"column:name;type:text" json:"name"`
	Description string     `gorm:"column:description;type:text" json:"description"`
	DateStart   *time.Time `gorm:"column:date_start;type:date" json:"date_start,omitempty"`
	DateEnd     *time.Time `gorm:"column:date_end;type:date" json:"date_end,omitempty"`
	URL         string     `gorm:"column:url;type:text" json:"url,omitempty"`

	Bullets  datatypes.JSON `gorm:"column:bullets;type:jsonb" json:"bullets"`
	RawBlock string         `gorm:"column:raw_block;type:text" json:"raw_block"`

	DomainTags pq.StringArray `gorm:"column:domain_tags;type:text[]" json:"domain_tags"`
	SkillTags  pq.StringArray `gorm:"column:skill_tags;type:text[]" json:"skill_tags"`

	Embedding *pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`

	VariantGroupID   *string `gorm:"column:variant_group_id;type:uuid;index" json:"variant_group_id,omitempty"`
	IsPrimaryVariant bool    `gorm:"column:is_primary_variant;default:true" json:"is_primary_variant"`

	NeedsReview bool `gorm:"column:needs_review" json:"needs_review"`
}

func (Project) TableName() string { return "projects" }
