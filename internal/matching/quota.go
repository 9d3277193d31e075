package matching

import "github.com/tawafuqapp/tawafuq/internal/models"

// Quota policies bound how many concurrent courtships a user can occupy at a
// given step. Counting is done by the caller against live match rows; the
// arithmetic here is pure.

const (
	// ViewQuotaLimit caps matches at profile_viewed where the user is the
	// requester.
	ViewQuotaLimit = 5

	// ChatQuotaLimit caps matches at chatting, counted across both roles.
	ChatQuotaLimit = 2
)

// Statuses that occupy a slot for each policy.
var (
	ViewQuotaStatuses = []models.Status{models.StatusPending, models.StatusApproved}
	ChatQuotaStatuses = []models.Status{models.StatusPending, models.StatusApproved, models.StatusChatting}
)

// Exceeds reports whether admitting one more transition into the constrained
// step would break the limit. A match already at the target step re-saving
// its state does not consume a new slot.
func Exceeds(limit int, count int64, alreadyAtStep bool) bool {
	if alreadyAtStep {
		return false
	}
	return count >= int64(limit)
}

// Remaining returns how many slots stay free after the requested transition,
// never negative.
func Remaining(limit int, count int64, alreadyAtStep bool) int {
	used := count
	if !alreadyAtStep {
		used++
	}
	if r := int64(limit) - used; r > 0 {
		return int(r)
	}
	return 0
}
