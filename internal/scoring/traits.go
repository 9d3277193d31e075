package scoring

import (
	"github.com/pgvector/pgvector-go"
	"github.com/tawafuqapp/tawafuq/internal/models"
)

// EngineVersion tags recomputed trait vectors. Bump when the source table or
// the defaulting rules change.
const EngineVersion = 2

// NeutralScore is the midpoint used when an instrument result is absent.
const NeutralScore = 50

// TraitVector is the fixed 8-dimension personality summary. Every dimension
// lives in [0,100].
type TraitVector struct {
	Dominance          float64 `json:"dominance"`
	Stability          float64 `json:"stability"`
	Empathy            float64 `json:"empathy"`
	Logic              float64 `json:"logic"`
	Religiosity        float64 `json:"religiosity"`
	ConflictStyle      float64 `json:"conflict_style"`
	AttachmentSecurity float64 `json:"attachment_security"`
	Ambition           float64 `json:"ambition"`
}

// traitSource maps each trait dimension to the instrument it reads from.
// Several traits alias the same instrument until dedicated sub-scores exist.
var traitSource = map[string]string{
	"dominance":           models.TestDISC,
	"stability":           models.TestClinical,
	"empathy":             models.TestPreMarriage,
	"logic":               models.Test16PF,
	"religiosity":         models.TestPreMarriage,
	"conflict_style":      models.TestDISC,
	"attachment_security": models.TestClinical,
	"ambition":            models.Test16PF,
}

// ExtractTraits maps a user's test results into a trait vector. Deterministic
// and pure: identical inputs yield an identical vector. Missing or unscored
// instruments default every dependent dimension to the neutral midpoint.
func ExtractTraits(results []models.TestResult) TraitVector {
	scores := LatestScores(results)

	lookup := func(trait string) float64 {
		inst := traitSource[trait]
		v, ok := scores[inst]
		if !ok {
			return NeutralScore
		}
		return clamp(v)
	}

	return TraitVector{
		Dominance:          lookup("dominance"),
		Stability:          lookup("stability"),
		Empathy:            lookup("empathy"),
		Logic:              lookup("logic"),
		Religiosity:        lookup("religiosity"),
		ConflictStyle:      lookup("conflict_style"),
		AttachmentSecurity: lookup("attachment_security"),
		Ambition:           lookup("ambition"),
	}
}

// LatestScores reduces a result history to one numeric score per instrument,
// most recent row winning. Rows without a numeric score are skipped entirely
// so an unscored resubmission cannot shadow an older scored one.
func LatestScores(results []models.TestResult) map[string]float64 {
	type pick struct {
		score float64
		at    int64
	}
	best := map[string]pick{}
	for _, r := range results {
		if r.Score == nil {
			continue
		}
		at := r.CreatedAt.UnixNano()
		if cur, ok := best[r.TestType]; ok && cur.at >= at {
			continue
		}
		best[r.TestType] = pick{score: *r.Score, at: at}
	}
	out := make(map[string]float64, len(best))
	for k, v := range best {
		out[k] = v.score
	}
	return out
}

// Embedding renders the vector in pgvector form for similarity queries.
func (v TraitVector) Embedding() pgvector.Vector {
	return pgvector.NewVector([]float32{
		float32(v.Dominance),
		float32(v.Stability),
		float32(v.Empathy),
		float32(v.Logic),
		float32(v.Religiosity),
		float32(v.ConflictStyle),
		float32(v.AttachmentSecurity),
		float32(v.Ambition),
	})
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
