package matching

import (
	"testing"

	"github.com/tawafuqapp/tawafuq/internal/models"
)

var allSteps = []models.Step{
	models.StepProfileRequest,
	models.StepProfileViewed,
	models.StepPhotoRequested,
	models.StepPhotoApproved,
	models.StepFullDataRequested,
	models.StepFullDataApproved,
	models.StepChatting,
	models.StepRejected,
	models.StepPhotoRejected,
	models.StepFullDataRejected,
	models.StepCancelled,
	models.StepBlocked,
}

func TestCanTransitionTable(t *testing.T) {
	allowed := map[models.Step]map[models.Step]bool{
		models.StepProfileRequest:    {models.StepProfileViewed: true, models.StepRejected: true},
		models.StepProfileViewed:     {models.StepPhotoRequested: true, models.StepRejected: true},
		models.StepPhotoRequested:    {models.StepPhotoApproved: true, models.StepPhotoRejected: true},
		models.StepPhotoApproved:     {models.StepFullDataRequested: true, models.StepRejected: true},
		models.StepFullDataRequested: {models.StepFullDataApproved: true, models.StepFullDataRejected: true},
		models.StepFullDataApproved:  {models.StepChatting: true},
	}

	for _, cur := range allSteps {
		for _, next := range allSteps {
			want := allowed[cur][next]
			if got := CanTransition(cur, next); got != want {
				t.Fatalf("CanTransition(%s, %s)=%v, want %v", cur, next, got, want)
			}
		}
	}
}

func TestCanTransitionEmptyCurrent(t *testing.T) {
	if !CanTransition("", models.StepProfileViewed) {
		t.Fatalf("empty current should behave as profile_request")
	}
	if CanTransition("", models.StepChatting) {
		t.Fatalf("empty current must not skip ahead")
	}
}

func TestCanTransitionUnknownCurrent(t *testing.T) {
	if got := Successors("bogus_step"); len(got) != 0 {
		t.Fatalf("unknown step should have no successors, got %v", got)
	}
	if CanTransition("bogus_step", models.StepProfileViewed) {
		t.Fatalf("unknown step must not transition")
	}
}

func TestAbsorbingSteps(t *testing.T) {
	absorbing := []models.Step{
		models.StepChatting,
		models.StepRejected,
		models.StepPhotoRejected,
		models.StepFullDataRejected,
		models.StepCancelled,
		models.StepBlocked,
	}
	for _, s := range absorbing {
		if !IsAbsorbing(s) {
			t.Fatalf("step %s should be absorbing", s)
		}
	}
	for _, s := range []models.Step{models.StepProfileRequest, models.StepFullDataApproved} {
		if IsAbsorbing(s) {
			t.Fatalf("step %s should not be absorbing", s)
		}
	}
}

func TestApproveRejectTargets(t *testing.T) {
	cases := []struct {
		name    string
		current models.Step
		approve models.Step
		reject  models.Step
	}{
		{"profile_request", models.StepProfileRequest, models.StepProfileViewed, models.StepRejected},
		{"photo_requested", models.StepPhotoRequested, models.StepPhotoApproved, models.StepPhotoRejected},
		{"full_data_requested", models.StepFullDataRequested, models.StepFullDataApproved, models.StepFullDataRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ApproveTarget(tc.current)
			if !ok || got != tc.approve {
				t.Fatalf("ApproveTarget(%s)=%s,%v want %s", tc.current, got, ok, tc.approve)
			}
			got, ok = RejectTarget(tc.current)
			if !ok || got != tc.reject {
				t.Fatalf("RejectTarget(%s)=%s,%v want %s", tc.current, got, ok, tc.reject)
			}
			// both targets must also be legal under the generic table
			if !CanTransition(tc.current, tc.approve) || !CanTransition(tc.current, tc.reject) {
				t.Fatalf("action targets for %s disagree with the successor table", tc.current)
			}
		})
	}

	if _, ok := ApproveTarget(models.StepChatting); ok {
		t.Fatalf("chatting must not be approvable")
	}
	if _, ok := RejectTarget(models.StepBlocked); ok {
		t.Fatalf("blocked must not be rejectable")
	}
}
