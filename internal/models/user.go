package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	FullName  string `gorm:"column:full_name;type:text" json:"full_name"`
	Gender    string `gorm:"column:gender;type:text" json:"gender"`
	BirthYear int    `gorm:"column:birth_year" json:"birth_year"`
	City      string `gorm:"column:city;type:text" json:"city"`

	// Declared religion. Empty means undeclared; the profile-view precondition
	// only fires when both sides have declared and the values differ.
	Religion string `gorm:"column:religion;type:text" json:"religion"`

	Interests pq.StringArray `gorm:"column:interests;type:text[]" json:"interests"`

	// Trait vector, recomputed wholesale from test results.
	TraitDominance          float64 `gorm:"column:trait_dominance" json:"trait_dominance"`
	TraitStability          float64 `gorm:"column:trait_stability" json:"trait_stability"`
	TraitEmpathy            float64 `gorm:"column:trait_empathy" json:"trait_empathy"`
	TraitLogic              float64 `gorm:"column:trait_logic" json:"trait_logic"`
	TraitReligiosity        float64 `gorm:"column:trait_religiosity" json:"trait_religiosity"`
	TraitConflictStyle      float64 `gorm:"column:trait_conflict_style" json:"trait_conflict_style"`
	TraitAttachmentSecurity float64 `gorm:"column:trait_attachment_security" json:"trait_attachment_security"`
	TraitAmbition           float64 `gorm:"column:trait_ambition" json:"trait_ambition"`

	// Same vector in pgvector form, for nearest-neighbour suggestions.
	TraitEmbedding pgvector.Vector `gorm:"column:trait_embedding;type:vector(8)" json:"-"`

	TraitsEngineVersion int        `gorm:"column:traits_engine_version" json:"traits_engine_version"`
	TraitsComputedAt    *time.Time `gorm:"column:traits_computed_at;type:timestamptz" json:"traits_computed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (User) TableName() string { return "users" }
