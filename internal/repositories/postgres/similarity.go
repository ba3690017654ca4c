package postgres

// SimilarHit is one row of a thresholded similarity query, used by the
// deduplication engine to find variant candidates.
type SimilarHit struct {
	ID             string  `gorm:"column:id"`
	VariantGroupID *string `gorm:"column:variant_group_id"`
	Similarity     float64 `gorm:"column:similarity"`
}
