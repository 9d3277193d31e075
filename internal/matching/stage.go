package matching

import "github.com/tawafuqapp/tawafuq/internal/models"

// successors is the allowed-successor table for the introduction flow.
// Absorbing steps are simply absent: their successor set is empty.
var successors = map[models.Step][]models.Step{
	models.StepProfileRequest:    {models.StepProfileViewed, models.StepRejected},
	models.StepProfileViewed:     {models.StepPhotoRequested, models.StepRejected},
	models.StepPhotoRequested:    {models.StepPhotoApproved, models.StepPhotoRejected},
	models.StepPhotoApproved:     {models.StepFullDataRequested, models.StepRejected},
	models.StepFullDataRequested: {models.StepFullDataApproved, models.StepFullDataRejected},
	models.StepFullDataApproved:  {models.StepChatting},
}

// Normalize maps a missing step to the initial one. Unknown values pass
// through and will have an empty successor set.
func Normalize(s models.Step) models.Step {
	if s == "" {
		return models.StepProfileRequest
	}
	return s
}

// Successors returns the allowed next steps for current. The returned slice
// must not be mutated.
func Successors(current models.Step) []models.Step {
	return successors[Normalize(current)]
}

// CanTransition reports whether moving from current to next is legal. It only
// judges legality; the caller applies the mutation.
func CanTransition(current, next models.Step) bool {
	for _, s := range Successors(current) {
		if s == next {
			return true
		}
	}
	return false
}

// approveNext maps a pending-request step to the step an approval lands on.
var approveNext = map[models.Step]models.Step{
	models.StepProfileRequest:    models.StepProfileViewed,
	models.StepPhotoRequested:    models.StepPhotoApproved,
	models.StepFullDataRequested: models.StepFullDataApproved,
}

// rejectNext maps a step to the absorbing step a rejection lands on.
var rejectNext = map[models.Step]models.Step{
	models.StepProfileRequest:    models.StepRejected,
	models.StepProfileViewed:     models.StepRejected,
	models.StepPhotoRequested:    models.StepPhotoRejected,
	models.StepPhotoApproved:     models.StepRejected,
	models.StepFullDataRequested: models.StepFullDataRejected,
}

// ApproveTarget returns the step an approve action moves to from current.
func ApproveTarget(current models.Step) (models.Step, bool) {
	next, ok := approveNext[Normalize(current)]
	return next, ok
}

// RejectTarget returns the absorbing step a reject action moves to from
// current.
func RejectTarget(current models.Step) (models.Step, bool) {
	next, ok := rejectNext[Normalize(current)]
	return next, ok
}

// IsAbsorbing reports whether a step has no legal successors.
func IsAbsorbing(s models.Step) bool {
	return len(Successors(s)) == 0
}

// IsPendingRequest reports whether the step is a request awaiting the
// counterpart's decision.
func IsPendingRequest(s models.Step) bool {
	_, ok := approveNext[Normalize(s)]
	return ok
}
