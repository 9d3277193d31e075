package models

import (
	"time"

	"gorm.io/datatypes"
)

// Psychometric instrument identifiers. The scorer's weight table and the trait
// extractor's source table both key on these.
const (
	TestPreMarriage = "pre_marriage"
	TestDISC        = "disc"
	TestClinical    = "clinical"
	Test16PF        = "16pf"
)

// TestResult is one scored instrument submission. Rows are immutable; a user
// may accumulate several rows per instrument and the most recent one wins.
type TestResult struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID   string `gorm:"column:user_id;type:uuid;index:idx_test_results_user_type" json:"user_id"`
	TestType string `gorm:"column:test_type;type:text;index:idx_test_results_user_type" json:"test_type"`

	// Overall score, 0-100. Nil when the instrument was submitted but not
	// scorable.
	Score *float64 `gorm:"column:score" json:"score"`

	// Raw per-question answers as delivered by the test front-end.
	Answers datatypes.JSON `gorm:"column:answers;type:jsonb" json:"answers,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (TestResult) TableName() string { return "test_results" }
