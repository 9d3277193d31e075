package scoring

import (
	"math"

	"github.com/tawafuqapp/tawafuq/internal/models"
)

// NeutralMatch is returned when no instrument has numeric data on both sides.
const NeutralMatch = 50

// instrumentWeights is the fixed per-instrument weight table. Weights sum to
// 1.0 and are renormalized over the instruments both users actually share, so
// partial data never drags a score toward zero.
var instrumentWeights = map[string]float64{
	models.TestPreMarriage: 0.4,
	models.TestDISC:        0.2,
	models.TestClinical:    0.2,
	models.Test16PF:        0.2,
}

// Score computes the 0-100 compatibility between two users from their raw
// test histories. Symmetric: Score(a, b) == Score(b, a). Rounding is
// math.Round, ties away from zero.
func Score(testsA, testsB []models.TestResult) int {
	a := LatestScores(testsA)
	b := LatestScores(testsB)

	var total, weightSum float64
	for inst, weight := range instrumentWeights {
		sa, okA := a[inst]
		sb, okB := b[inst]
		if !okA || !okB {
			continue
		}
		similarity := 100 - math.Abs(sa-sb)
		total += similarity * weight
		weightSum += weight
	}

	if weightSum == 0 {
		return NeutralMatch
	}
	return int(math.Round(total / weightSum))
}
