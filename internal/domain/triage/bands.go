package triage

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

// Range is an inclusive [Low, High] interval.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ReferenceBand holds the age-specific reference ranges for vital signs.
type ReferenceBand struct {
	Name        string  `json:"name"`
	HeartRate   Range   `json:"heart_rate"`
	Systolic    Range   `json:"systolic"`
	Diastolic   Range   `json:"diastolic"`
	MinOxygen   float64 `json:"min_oxygen"`
	Temperature Range   `json:"temperature"`
}

// Bracket maps every age up to and including UpperAge to Band.
type Bracket struct {
	UpperAge float64
	Band     ReferenceBand
}

// BandTable is an ordered list of brackets with strictly increasing bounds.
type BandTable struct {
	brackets []Bracket
}

var standardTemperature = Range{Low: 34.0, High: 40.5}

var defaultBrackets = []Bracket{
	{UpperAge: 0, Band: ReferenceBand{Name: "neonate", HeartRate: Range{80, 200}, Systolic: Range{55, 90}, Diastolic: Range{30, 60}, MinOxygen: 85, Temperature: standardTemperature}},
	{UpperAge: 2, Band: ReferenceBand{Name: "infant", HeartRate: Range{80, 200}, Systolic: Range{60, 100}, Diastolic: Range{35, 65}, MinOxygen: 88, Temperature: standardTemperature}},
	{UpperAge: 5, Band: ReferenceBand{Name: "preschool", HeartRate: Range{75, 190}, Systolic: Range{65, 105}, Diastolic: Range{40, 70}, MinOxygen: 88, Temperature: standardTemperature}},
	{UpperAge: 12, Band: ReferenceBand{Name: "school-age", HeartRate: Range{60, 180}, Systolic: Range{70, 115}, Diastolic: Range{45, 80}, MinOxygen: 88, Temperature: standardTemperature}},
	{UpperAge: 18, Band: ReferenceBand{Name: "adolescent", HeartRate: Range{50, 170}, Systolic: Range{75, 120}, Diastolic: Range{50, 85}, MinOxygen: 88, Temperature: standardTemperature}},
	{UpperAge: math.Inf(1), Band: ReferenceBand{Name: "adult", HeartRate: Range{40, 160}, Systolic: Range{80, 220}, Diastolic: Range{50, 130}, MinOxygen: 88, Temperature: standardTemperature}},
}

var defaultTable = &BandTable{brackets: defaultBrackets}

// DefaultBandTable returns the six standard age brackets.
func DefaultBandTable() *BandTable {
	return defaultTable
}

// NewBandTable validates and builds a custom table. The last bracket must be
// unbounded so that every age resolves.
func NewBandTable(brackets ...Bracket) (*BandTable, error) {
	if len(brackets) == 0 {
		return nil, apperrors.NewConfigurationError("band table is empty", nil)
	}
	for i := 1; i < len(brackets); i++ {
		if brackets[i].UpperAge <= brackets[i-1].UpperAge {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("band %q upper age %v is not above %v", brackets[i].Band.Name, brackets[i].UpperAge, brackets[i-1].UpperAge), nil)
		}
	}
	if !math.IsInf(brackets[len(brackets)-1].UpperAge, 1) {
		return nil, apperrors.NewConfigurationError("last band must be unbounded", nil)
	}

	out := make([]Bracket, len(brackets))
	copy(out, brackets)
	return &BandTable{brackets: out}, nil
}

// Resolve returns the band of the first bracket whose upper bound is >= age.
func (t *BandTable) Resolve(age int) (ReferenceBand, error) {
	if t == nil || len(t.brackets) == 0 {
		return ReferenceBand{}, apperrors.NewConfigurationError("no reference bands configured", nil)
	}

	a := float64(age)
	idx := sort.Search(len(t.brackets), func(i int) bool {
		return a <= t.brackets[i].UpperAge
	})
	if idx == len(t.brackets) {
		return ReferenceBand{}, apperrors.NewConfigurationError(fmt.Sprintf("no reference band for age %d", age), nil)
	}
	return t.brackets[idx].Band, nil
}

// Brackets returns a copy of the table's brackets.
func (t *BandTable) Brackets() []Bracket {
	out := make([]Bracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// ResolveBand resolves age against the default table.
func ResolveBand(age int) (ReferenceBand, error) {
	return defaultTable.Resolve(age)
}

// Margins are absolute measurement tolerances applied to band boundaries.
type Margins struct {
	Systolic    float64 `json:"systolic"`
	Diastolic   float64 `json:"diastolic"`
	HeartRate   float64 `json:"heart_rate"`
	Oxygen      float64 `json:"oxygen"`
	Temperature float64 `json:"temperature"`
}

// DefaultMargins returns the standard measurement tolerances.
func DefaultMargins() Margins {
	return Margins{
		Systolic:    5,
		Diastolic:   5,
		HeartRate:   3,
		Oxygen:      1,
		Temperature: 0.2,
	}
}
