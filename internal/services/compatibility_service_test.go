package services

import (
	"context"
	"testing"
	"time"

	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

func scored(userID, testType string, score float64, at time.Time) models.TestResult {
	s := score
	return models.TestResult{
		ID:        userID + "-" + testType,
		UserID:    userID,
		TestType:  testType,
		Score:     &s,
		CreatedAt: at,
	}
}

func TestOnTestResultsChanged(t *testing.T) {
	ctx := context.Background()

	t.Run("one job per distinct counterpart", func(t *testing.T) {
		matches := newFakeMatchRepo()
		// two historical rows against bob plus one live, one against carol
		matches.add(seedMatch("m1", "alice", "bob", models.StepRejected, models.StatusRejected))
		matches.add(seedMatch("m2", "bob", "alice", models.StepProfileViewed, models.StatusApproved))
		matches.add(seedMatch("m3", "alice", "carol", models.StepProfileRequest, models.StatusPending))

		users := newFakeUserRepo(user("alice", ""))
		tests := newFakeTestResultRepo()
		tests.byUser["alice"] = []models.TestResult{
			scored("alice", models.TestDISC, 80, time.Now()),
		}
		disp := &fakeDispatcher{}
		svc := NewCompatibilityService(users, tests, matches, disp, nil)

		if err := svc.OnTestResultsChanged(ctx, "alice"); err != nil {
			t.Fatalf("OnTestResultsChanged: %v", err)
		}

		if len(disp.pairs) != 2 {
			t.Fatalf("got %d pair jobs, want 2: %v", len(disp.pairs), disp.pairs)
		}
		seen := map[string]bool{}
		for _, p := range disp.pairs {
			if p.a != "alice" {
				t.Fatalf("pair job first id = %s", p.a)
			}
			seen[p.b] = true
		}
		if !seen["bob"] || !seen["carol"] {
			t.Fatalf("missing counterpart jobs: %v", seen)
		}

		if len(users.saved) != 1 || users.saved[0].userID != "alice" {
			t.Fatalf("traits not saved: %v", users.saved)
		}
		if users.saved[0].vec.Dominance != 80 {
			t.Fatalf("dominance = %v, want 80", users.saved[0].vec.Dominance)
		}
	})

	t.Run("no counterparts means no jobs", func(t *testing.T) {
		matches := newFakeMatchRepo()
		users := newFakeUserRepo(user("alice", ""))
		tests := newFakeTestResultRepo()
		disp := &fakeDispatcher{}
		svc := NewCompatibilityService(users, tests, matches, disp, nil)

		if err := svc.OnTestResultsChanged(ctx, "alice"); err != nil {
			t.Fatalf("OnTestResultsChanged: %v", err)
		}
		if len(disp.pairs) != 0 {
			t.Fatalf("unexpected jobs: %v", disp.pairs)
		}
	})

	t.Run("empty user id", func(t *testing.T) {
		svc := NewCompatibilityService(newFakeUserRepo(), newFakeTestResultRepo(), newFakeMatchRepo(), &fakeDispatcher{}, nil)
		if err := svc.OnTestResultsChanged(ctx, ""); !utils.IsCode(err, utils.CodeInvalidArgument) {
			t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
		}
	})
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a computed trait vector", func(t *testing.T) {
		users := newFakeUserRepo(user("alice", ""))
		svc := NewCompatibilityService(users, newFakeTestResultRepo(), newFakeMatchRepo(), &fakeDispatcher{}, nil)

		if _, err := svc.Suggestions(ctx, "alice", 5); !utils.IsCode(err, utils.CodePreconditionFailed) {
			t.Fatalf("expected PRECONDITION_FAILED, got %v", err)
		}
	})

	t.Run("excludes existing counterparts and self", func(t *testing.T) {
		now := time.Now().UTC()
		alice := user("alice", "")
		alice.TraitsComputedAt = &now

		users := newFakeUserRepo(alice)
		users.nearest = []models.User{
			{ID: "alice"}, {ID: "bob"}, {ID: "carol"}, {ID: "dave"},
		}

		matches := newFakeMatchRepo()
		matches.add(seedMatch("m1", "alice", "bob", models.StepProfileViewed, models.StatusApproved))

		svc := NewCompatibilityService(users, newFakeTestResultRepo(), matches, &fakeDispatcher{}, nil)

		out, err := svc.Suggestions(ctx, "alice", 5)
		if err != nil {
			t.Fatalf("Suggestions: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("got %d suggestions, want 2: %v", len(out), out)
		}
		for _, u := range out {
			if u.ID == "alice" || u.ID == "bob" {
				t.Fatalf("excluded user %s suggested", u.ID)
			}
		}
	})
}

func TestTraits(t *testing.T) {
	ctx := context.Background()

	t.Run("precondition before first computation", func(t *testing.T) {
		users := newFakeUserRepo(user("alice", ""))
		svc := NewCompatibilityService(users, newFakeTestResultRepo(), newFakeMatchRepo(), &fakeDispatcher{}, nil)

		if _, err := svc.Traits(ctx, "alice"); !utils.IsCode(err, utils.CodePreconditionFailed) {
			t.Fatalf("expected PRECONDITION_FAILED, got %v", err)
		}
	})

	t.Run("returns the stored vector", func(t *testing.T) {
		now := time.Now().UTC()
		alice := user("alice", "")
		alice.TraitsComputedAt = &now
		alice.TraitDominance = 70
		alice.TraitsEngineVersion = 2

		users := newFakeUserRepo(alice)
		svc := NewCompatibilityService(users, newFakeTestResultRepo(), newFakeMatchRepo(), &fakeDispatcher{}, nil)

		p, err := svc.Traits(ctx, "alice")
		if err != nil {
			t.Fatalf("Traits: %v", err)
		}
		if p.Traits.Dominance != 70 || p.EngineVersion != 2 {
			t.Fatalf("got %+v", p)
		}
	})
}

func TestRescoreAll(t *testing.T) {
	ctx := context.Background()

	users := newFakeUserRepo(user("a", ""), user("b", ""), user("c", ""))
	disp := &fakeDispatcher{}
	svc := NewCompatibilityService(users, newFakeTestResultRepo(), newFakeMatchRepo(), disp, nil)

	n, err := svc.RescoreAll(ctx)
	if err != nil {
		t.Fatalf("RescoreAll: %v", err)
	}
	if n != 3 || len(disp.users) != 3 {
		t.Fatalf("submitted %d jobs (%v), want 3", n, disp.users)
	}
}
