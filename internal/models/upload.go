package models

import "time"

type CvUpload struct {
	ID               string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID           string    `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	OriginalFilename string    `gorm:"column:original_filename;type:text" json:"original_filename"`
	FileType         string    `gorm:"column:file_type;type:text" json:"file_type"` // pdf | docx | paste
	RawText          string    `gorm:"column:raw_text;type:text" json:"raw_text"`
	RawTextQuality   *float64  `gorm:"column:raw_text_quality;type:float" json:"raw_text_quality,omitempty"`
	ParsingStatus    string    `gorm:"column:parsing_status;type:text;default:pending" json:"parsing_status"`
	ParsingNotes     string    `gorm:"column:parsing_notes;type:text" json:"parsing_notes,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (CvUpload) TableName() string { return "cv_uploads" }
