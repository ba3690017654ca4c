package models

import (
	"time"

	"gorm.io/datatypes"
)

type Education struct {
	ID             string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         string  `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	UploadSourceID *string `gorm:"column:upload_source_id;type:uuid" json:"upload_source_id,omitempty"`

	Institution string     `gorm:"column:institution;type:text" json:"institution"`
	Degree      string     `gorm:"column:degree;type:text" json:"degree"`
	Grade       string     `gorm:"column:grade;type:text" json:"grade,omitempty"`
	Location    string     `gorm:"column:location;type:text" json:"location,omitempty"`
	DateStart   *time.Time `gorm:"column:date_start;type:date" json:"date_start,omitempty"`
	DateEnd     *time.Time `gorm:"column:date_end;type:date" json:"date_end,omitempty"`

	// JSONB lists ({"items": [...]} or plain arrays)
	Achievements datatypes.JSON `gorm:"column:achievements;type:jsonb" json:"achievements,omitempty"`
	Modules      datatypes.JSON `gorm:"column:modules;type:jsonb" json:"modules,omitempty"`

	RawBlock string `gorm:"column:raw_block;type:text" json:"raw_block"`

	DatesConfidence       *float64 `gorm:"column:dates_confidence;type:float" json:"dates_confidence,omitempty"`
	InstitutionConfidence *float64 `gorm:"column:institution_confidence;type:float" json:"institution_confidence,omitempty"`
	NeedsReview           bool     `gorm:"column:needs_review" json:"needs_review"`
}

func (Education) TableName() string { return "education" }
