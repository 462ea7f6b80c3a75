package evaluation

import (
	"math"
	"testing"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func priorities(ps ...int) []entities.Priority {
	out := make([]entities.Priority, len(ps))
	for i, p := range ps {
		out[i] = entities.Priority(p)
	}
	return out
}

func TestAccuracy(t *testing.T) {
	got := Accuracy(priorities(1, 2, 3, 4), priorities(1, 3, 3, 5))
	if !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestAccuracy_Empty(t *testing.T) {
	if got := Accuracy(nil, nil); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestUnderAndOverTriage(t *testing.T) {
	expected := priorities(1, 2, 3, 4)
	assigned := priorities(2, 2, 1, 5)

	// 1→2 and 4→5 are less urgent than labelled
	if got := UnderTriageRate(expected, assigned); !almostEqual(got, 0.5) {
		t.Errorf("under-triage: expected 0.5, got %f", got)
	}
	if got := OverTriageRate(expected, assigned); !almostEqual(got, 0.25) {
		t.Errorf("over-triage: expected 0.25, got %f", got)
	}
}

func TestMeanAbsoluteError(t *testing.T) {
	got := MeanAbsoluteError(priorities(1, 2, 3, 5), priorities(1, 4, 2, 5))
	// |0| + |2| + |1| + |0| over 4
	if !almostEqual(got, 0.75) {
		t.Errorf("expected 0.75, got %f", got)
	}
}

func TestConfusionMatrix_IgnoresOutOfRange(t *testing.T) {
	var m ConfusionMatrix
	m.Add(1, 1)
	m.Add(1, 2)
	m.Add(0, 2)
	m.Add(3, 6)

	if m.Total() != 2 {
		t.Errorf("expected 2 recorded cases, got %d", m.Total())
	}
	if m[0][1] != 1 {
		t.Errorf("expected one 1→2 case, got %d", m[0][1])
	}
}

func TestCohenKappa_PerfectAgreement(t *testing.T) {
	var m ConfusionMatrix
	m.Add(1, 1)
	m.Add(3, 3)
	m.Add(5, 5)

	if got := CohenKappa(m); !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestCohenKappa_ChanceAgreement(t *testing.T) {
	var m ConfusionMatrix
	// both raters split 50/50 between 2 and 4 independently
	m.Add(2, 2)
	m.Add(2, 4)
	m.Add(4, 2)
	m.Add(4, 4)

	if got := CohenKappa(m); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestCohenKappa_Empty(t *testing.T) {
	if got := CohenKappa(ConfusionMatrix{}); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestCohenKappa_SingleClass(t *testing.T) {
	var m ConfusionMatrix
	m.Add(5, 5)
	m.Add(5, 5)

	if got := CohenKappa(m); !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}
