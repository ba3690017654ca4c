package models

import "github.com/lib/pq"

// Skill category values (checked by a DB constraint).
const (
	SkillCategoryTechnical     = "technical"
	SkillCategoryLanguage      = "language"
	SkillCategoryTool          = "tool"
	SkillCategorySoft          = "soft"
	SkillCategoryOther         = "other"
	SkillCategoryCertification = "certification"
	SkillCategoryFramework     = "framework"
	SkillCategoryInterest      = "interest"
)

type Skill struct {
	ID            string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        string         `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Name          string         `gorm:"column:name;type:text" json:"name"`
	CanonicalName string         `gorm:"column:canonical_name;type:text" json:"canonical_name,omitempty"`
	Category      string         `gorm:"column:category;type:text" json:"category,omitempty"`
	Proficiency   string         `gorm:"column:proficiency;type:text" json:"proficiency,omitempty"`
	DomainTags    pq.StringArray `gorm:"column:domain_tags;type:text[]" json:"domain_tags,omitempty"`

	// Soft dedup: duplicates point at the record they repeat, nothing is merged.
	IsDuplicateOf *string `gorm:"column:is_duplicate_of;type:uuid" json:"is_duplicate_of,omitempty"`
}

func (Skill) TableName() string { return "skills" }
