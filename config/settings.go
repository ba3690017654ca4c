package config

import (
	"os"
	"strconv"
)

// Settings collects the tunables of the selection pipeline. Values come from
// environment variables, then defaults. The line-budget and wrap constants
// encode the layout of the LaTeX template the renderer uses; they are not
// algorithmically derived.
type Settings struct {
	// Deduplication thresholds (cosine similarity)
	VariantThreshold       float64
	NearDuplicateThreshold float64

	// Selection engine
	DomainBoost     float64
	MaxSkills       int
	ExperienceFloor int

	// Rendered-line budget (template-specific)
	LinesPerPage    int
	BulletWrapChars int // above this a bullet renders as 2 lines
	BulletWrap3Char int // above this a bullet renders as 3 lines

	// Embedding
	EmbeddingModel string
	EmbedCacheSize int

	// Lease
	LeaseTTLSeconds int
}

func LoadSettings() Settings {
	return Settings{
		VariantThreshold:       envFloat("VARIANT_THRESHOLD", 0.75),
		NearDuplicateThreshold: envFloat("NEAR_DUPLICATE_THRESHOLD", 0.92),
		DomainBoost:            envFloat("DOMAIN_BOOST", 0.08),
		MaxSkills:              envInt("MAX_SKILLS", 25),
		ExperienceFloor:        envInt("EXPERIENCE_FLOOR", 3),
		LinesPerPage:           envInt("LINES_PER_PAGE", 34),
		BulletWrapChars:        envInt("BULLET_WRAP_CHARS", 85),
		BulletWrap3Char:        envInt("BULLET_WRAP3_CHARS", 170),
		EmbeddingModel:         envStr("EMBEDDING_MODEL", "text-embedding-004"),
		EmbedCacheSize:         envInt("EMBED_CACHE_SIZE", 2048),
		LeaseTTLSeconds:        envInt("LEASE_TTL_SECONDS", 300),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
