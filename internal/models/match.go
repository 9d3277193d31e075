package models

import "time"

// Step is the fine-grained position of a match inside the introduction flow.
type Step string

const (
	StepProfileRequest    Step = "profile_request"
	StepProfileViewed     Step = "profile_viewed"
	StepPhotoRequested    Step = "photo_requested"
	StepPhotoApproved     Step = "photo_approved"
	StepFullDataRequested Step = "full_data_requested"
	StepFullDataApproved  Step = "full_data_approved"
	StepChatting          Step = "chatting"

	// absorbing outcomes
	StepRejected         Step = "rejected"
	StepPhotoRejected    Step = "photo_rejected"
	StepFullDataRejected Step = "full_data_rejected"
	StepCancelled        Step = "cancelled"
	StepBlocked          Step = "blocked"
)

// Status is the coarse lifecycle flag layered alongside Step.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
	StatusChatting Status = "chatting"
)

type Match struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequesterID string `gorm:"column:requester_id;type:uuid;index" json:"requester_id"`
	TargetID    string `gorm:"column:target_id;type:uuid;index" json:"target_id"`

	// PairKey is the order-independent identity of the pair. Unique among
	// non-blocked rows (partial index created at migration time).
	PairKey string `gorm:"column:pair_key;type:text;index" json:"pair_key"`

	Status Status `gorm:"column:status;type:text" json:"status"`
	Step   Step   `gorm:"column:step;type:text" json:"step"`

	RequesterViewed bool `gorm:"column:requester_viewed" json:"requester_viewed"`
	TargetViewed    bool `gorm:"column:target_viewed" json:"target_viewed"`

	// Last computed compatibility score, 0-100. Nil until first computation.
	MatchPercentage *int `gorm:"column:match_percentage" json:"match_percentage"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Match) TableName() string { return "matches" }

func (m *Match) HasUser(userID string) bool {
	return m.RequesterID == userID || m.TargetID == userID
}

func (m *Match) CounterpartOf(userID string) (string, bool) {
	if m.RequesterID == userID {
		return m.TargetID, true
	}
	if m.TargetID == userID {
		return m.RequesterID, true
	}
	return "", false
}
