package evaluation

import (
	"math"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"gonum.org/v1/gonum/stat"
)

// ConfusionMatrix counts cases by [expected-1][assigned-1].
type ConfusionMatrix [entities.PriorityLevels][entities.PriorityLevels]int

// Add records one case. Out-of-range priorities are ignored.
func (m *ConfusionMatrix) Add(expected, assigned entities.Priority) {
	if !expected.Valid() || !assigned.Valid() {
		return
	}
	m[expected-1][assigned-1]++
}

// Total returns the number of recorded cases.
func (m *ConfusionMatrix) Total() int {
	n := 0
	for _, row := range m {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// Accuracy returns the share of cases where assigned equals expected.
// Returns 0.0 for empty input.
func Accuracy(expected, assigned []entities.Priority) float64 {
	if len(expected) == 0 {
		return 0.0
	}
	hits := 0
	for i := range expected {
		if expected[i] == assigned[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(expected))
}

// UnderTriageRate returns the share of cases assigned a less urgent
// (numerically larger) priority than expected.
func UnderTriageRate(expected, assigned []entities.Priority) float64 {
	if len(expected) == 0 {
		return 0.0
	}
	under := 0
	for i := range expected {
		if assigned[i] > expected[i] {
			under++
		}
	}
	return float64(under) / float64(len(expected))
}

// OverTriageRate returns the share of cases assigned a more urgent priority than expected.
func OverTriageRate(expected, assigned []entities.Priority) float64 {
	if len(expected) == 0 {
		return 0.0
	}
	over := 0
	for i := range expected {
		if assigned[i] < expected[i] {
			over++
		}
	}
	return float64(over) / float64(len(expected))
}

// MeanAbsoluteError returns the mean distance in priority levels.
func MeanAbsoluteError(expected, assigned []entities.Priority) float64 {
	if len(expected) == 0 {
		return 0.0
	}
	diffs := make([]float64, len(expected))
	for i := range expected {
		diffs[i] = math.Abs(float64(assigned[i] - expected[i]))
	}
	return stat.Mean(diffs, nil)
}

// CohenKappa measures agreement beyond chance from a confusion matrix.
// Returns 0.0 when there are no cases and 1.0 when chance agreement is already perfect.
func CohenKappa(m ConfusionMatrix) float64 {
	n := float64(m.Total())
	if n == 0 {
		return 0.0
	}

	var observed, chance float64
	for i := 0; i < entities.PriorityLevels; i++ {
		var rowSum, colSum float64
		for j := 0; j < entities.PriorityLevels; j++ {
			rowSum += float64(m[i][j])
			colSum += float64(m[j][i])
		}
		observed += float64(m[i][i])
		chance += rowSum * colSum
	}
	observed /= n
	chance /= n * n

	if chance == 1 {
		return 1.0
	}
	return (observed - chance) / (1 - chance)
}
