package services

import (
	"context"
	"testing"
	"time"

	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

func TestComputePair(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("stamps every row of the pair", func(t *testing.T) {
		tests := newFakeTestResultRepo()
		tests.byUser["alice"] = []models.TestResult{scored("alice", models.TestPreMarriage, 80, now)}
		tests.byUser["bob"] = []models.TestResult{scored("bob", models.TestPreMarriage, 80, now)}

		matches := newFakeMatchRepo()
		matches.add(seedMatch("m1", "alice", "bob", models.StepRejected, models.StatusRejected))
		matches.add(seedMatch("m2", "bob", "alice", models.StepProfileViewed, models.StatusApproved))

		svc := NewScoreService(tests, matches, nil, nil, nil)

		pct, err := svc.ComputePair(ctx, "alice", "bob")
		if err != nil {
			t.Fatalf("ComputePair: %v", err)
		}
		if pct != 100 {
			t.Fatalf("pct = %d, want 100", pct)
		}
		for _, id := range []string{"m1", "m2"} {
			m, _ := matches.GetByID(ctx, id)
			if m.MatchPercentage == nil || *m.MatchPercentage != 100 {
				t.Fatalf("%s not stamped: %v", id, m.MatchPercentage)
			}
		}
	})

	t.Run("neutral without overlap", func(t *testing.T) {
		tests := newFakeTestResultRepo()
		tests.byUser["alice"] = []models.TestResult{scored("alice", models.TestDISC, 90, now)}
		tests.byUser["bob"] = []models.TestResult{scored("bob", models.Test16PF, 10, now)}

		matches := newFakeMatchRepo()
		matches.add(seedMatch("m1", "alice", "bob", models.StepProfileViewed, models.StatusApproved))

		svc := NewScoreService(tests, matches, nil, nil, nil)

		pct, err := svc.ComputePair(ctx, "alice", "bob")
		if err != nil {
			t.Fatalf("ComputePair: %v", err)
		}
		if pct != 50 {
			t.Fatalf("pct = %d, want 50", pct)
		}
	})

	t.Run("requires two distinct ids", func(t *testing.T) {
		svc := NewScoreService(newFakeTestResultRepo(), newFakeMatchRepo(), nil, nil, nil)
		if _, err := svc.ComputePair(ctx, "alice", "alice"); !utils.IsCode(err, utils.CodeInvalidArgument) {
			t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
		}
		if _, err := svc.ComputePair(ctx, "", "bob"); !utils.IsCode(err, utils.CodeInvalidArgument) {
			t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
		}
	})
}
