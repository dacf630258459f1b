package models

import (
	"time"

	"github.com/google/uuid"
)

// ExpertiseInsight describes what a creator is demonstrably good at.
type ExpertiseInsight struct {
	Summary   string   `json:"summary"`
	TopSkills []string `json:"topSkills"`
	Level     int      `json:"level"`
}

// UniquenessInsight describes what sets a creator apart, derived from
// rare tag combinations across their works.
type UniquenessInsight struct {
	Summary         string   `json:"summary"`
	Differentiators []string `json:"differentiators"`
	Level           int      `json:"level"`
}

// InterestsInsight describes the themes a creator keeps coming back to.
type InterestsInsight struct {
	Summary      string   `json:"summary"`
	TopInterests []string `json:"topInterests"`
	Level        int      `json:"level"`
}

// InsightRecord is the per-user aggregation result. Exactly one record
// exists per user; every analysis run overwrites it in full.
//
// Levels are always in [1,9] and the three top lists always hold exactly
// three entries, backfilled with defaults when a user has few tags.
type InsightRecord struct {
	UserID       uuid.UUID         `json:"userId"`
	Expertise    ExpertiseInsight  `json:"expertise"`
	Uniqueness   UniquenessInsight `json:"uniqueness"`
	Interests    InterestsInsight  `json:"interests"`
	Specialties  []string          `json:"specialties"`
	DesignStyles []string          `json:"designStyles"`
	CreatedAt    time.Time         `json:"-"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
