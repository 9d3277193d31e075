package scoring

import (
	"testing"
	"time"

	"github.com/tawafuqapp/tawafuq/internal/models"
)

func TestExtractTraitsEmptyDefaultsToNeutral(t *testing.T) {
	v := ExtractTraits(nil)
	for name, got := range map[string]float64{
		"dominance":           v.Dominance,
		"stability":           v.Stability,
		"empathy":             v.Empathy,
		"logic":               v.Logic,
		"religiosity":         v.Religiosity,
		"conflict_style":      v.ConflictStyle,
		"attachment_security": v.AttachmentSecurity,
		"ambition":            v.Ambition,
	} {
		if got != NeutralScore {
			t.Fatalf("%s: got %v, want neutral %d", name, got, NeutralScore)
		}
	}
}

func TestExtractTraitsSourceTable(t *testing.T) {
	now := time.Now()
	results := []models.TestResult{
		result(models.TestDISC, 80, now),
		result(models.TestClinical, 30, now),
		result(models.TestPreMarriage, 90, now),
		result(models.Test16PF, 60, now),
	}
	v := ExtractTraits(results)

	if v.Dominance != 80 || v.ConflictStyle != 80 {
		t.Fatalf("disc-sourced traits: dominance=%v conflict_style=%v, want 80", v.Dominance, v.ConflictStyle)
	}
	if v.Stability != 30 || v.AttachmentSecurity != 30 {
		t.Fatalf("clinical-sourced traits: stability=%v attachment=%v, want 30", v.Stability, v.AttachmentSecurity)
	}
	if v.Empathy != 90 || v.Religiosity != 90 {
		t.Fatalf("pre_marriage-sourced traits: empathy=%v religiosity=%v, want 90", v.Empathy, v.Religiosity)
	}
	if v.Logic != 60 || v.Ambition != 60 {
		t.Fatalf("16pf-sourced traits: logic=%v ambition=%v, want 60", v.Logic, v.Ambition)
	}
}

func TestExtractTraitsClampsOutOfRange(t *testing.T) {
	now := time.Now()
	v := ExtractTraits([]models.TestResult{
		result(models.TestDISC, 140, now),
		result(models.TestClinical, -5, now),
	})
	if v.Dominance != 100 {
		t.Fatalf("score above range should clamp to 100, got %v", v.Dominance)
	}
	if v.Stability != 0 {
		t.Fatalf("score below range should clamp to 0, got %v", v.Stability)
	}
}

func TestExtractTraitsMostRecentWins(t *testing.T) {
	now := time.Now()
	v := ExtractTraits([]models.TestResult{
		result(models.TestDISC, 20, now.Add(-2*time.Hour)),
		result(models.TestDISC, 75, now),
		unscored(models.TestDISC, now.Add(time.Hour)), // unscored rows never shadow scored ones
	})
	if v.Dominance != 75 {
		t.Fatalf("most recent scored result should win, got %v", v.Dominance)
	}
}

func TestExtractTraitsDeterministic(t *testing.T) {
	now := time.Unix(1700000000, 0)
	results := []models.TestResult{
		result(models.TestPreMarriage, 55, now),
		result(models.Test16PF, 72, now),
	}
	if ExtractTraits(results) != ExtractTraits(results) {
		t.Fatalf("extraction must be deterministic")
	}
}

func TestEmbeddingDimensions(t *testing.T) {
	emb := ExtractTraits(nil).Embedding()
	if got := len(emb.Slice()); got != 8 {
		t.Fatalf("embedding must have 8 dimensions, got %d", got)
	}
}
