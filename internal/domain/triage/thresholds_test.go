package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

const epsilon = 0.01

func adultBand(t *testing.T) ReferenceBand {
	t.Helper()
	band, err := ResolveBand(40)
	require.NoError(t, err)
	return band
}

func normalAdultVitals() entities.Vitals {
	return entities.Vitals{
		Temperature: 37,
		Systolic:    120,
		Diastolic:   80,
		HeartRate:   75,
		Oxygen:      97,
	}
}

func intPtr(v int) *int {
	return &v
}

func TestEvaluate_VitalsWellInsideBand(t *testing.T) {
	// Bands whose diastolic range reaches above the fixed 65+margin severe threshold.
	for _, age := range []int{8, 15, 40, 90} {
		band, err := ResolveBand(age)
		require.NoError(t, err)

		vitals := entities.Vitals{
			Temperature: (band.Temperature.Low + band.Temperature.High) / 2,
			Systolic:    band.Systolic.High - 1,
			Diastolic:   band.Diastolic.High - 1,
			HeartRate:   (band.HeartRate.Low + band.HeartRate.High) / 2,
			Oxygen:      99,
		}

		verdict := Evaluate(vitals, band, DefaultMargins(), nil)
		assert.False(t, verdict.Emergency, "band %s", band.Name)
		assert.False(t, verdict.Severe, "band %s", band.Name)
		assert.Empty(t, verdict.Findings)
		assert.Equal(t, entities.DefaultPriority, verdict.SeedPriority())
	}
}

func TestEvaluate_SingleFieldJustPastEmergencyThreshold(t *testing.T) {
	band := adultBand(t)
	m := DefaultMargins()

	testCases := []struct {
		name    string
		mutate  func(v *entities.Vitals)
		finding Finding
	}{
		{"systolic low", func(v *entities.Vitals) { v.Systolic = band.Systolic.Low - m.Systolic - epsilon }, FindingSystolicLow},
		{"diastolic low", func(v *entities.Vitals) { v.Diastolic = band.Diastolic.Low - m.Diastolic - epsilon }, FindingDiastolicLow},
		{"diastolic high", func(v *entities.Vitals) { v.Diastolic = band.Diastolic.High + m.Diastolic + epsilon }, FindingDiastolicHigh},
		{"heart rate low", func(v *entities.Vitals) { v.HeartRate = band.HeartRate.Low - m.HeartRate - epsilon }, FindingHeartRate},
		{"heart rate high", func(v *entities.Vitals) { v.HeartRate = band.HeartRate.High + m.HeartRate + epsilon }, FindingHeartRate},
		{"oxygen low", func(v *entities.Vitals) { v.Oxygen = band.MinOxygen - m.Oxygen - epsilon }, FindingOxygenLow},
		{"temperature low", func(v *entities.Vitals) { v.Temperature = band.Temperature.Low - m.Temperature - epsilon }, FindingTemperature},
		{"temperature high", func(v *entities.Vitals) { v.Temperature = band.Temperature.High + m.Temperature + epsilon }, FindingTemperature},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			vitals := normalAdultVitals()
			tc.mutate(&vitals)

			verdict := Evaluate(vitals, band, m, nil)
			assert.True(t, verdict.Emergency)
			assert.False(t, verdict.Severe)
			assert.Contains(t, verdict.Findings, tc.finding)
			assert.Equal(t, entities.PriorityImmediate, verdict.SeedPriority())
		})
	}
}

func TestEvaluate_MarginAbsorbsMeasurementNoise(t *testing.T) {
	band := adultBand(t)
	m := DefaultMargins()

	vitals := normalAdultVitals()
	vitals.HeartRate = band.HeartRate.High + m.HeartRate
	vitals.Temperature = band.Temperature.High + m.Temperature

	verdict := Evaluate(vitals, band, m, nil)
	assert.False(t, verdict.Emergency)
	assert.True(t, verdict.Severe)
	assert.Equal(t, []Finding{FindingHeartRateBorder}, verdict.Findings)
}

func TestEvaluate_PresetPriority(t *testing.T) {
	band := adultBand(t)

	verdict := Evaluate(normalAdultVitals(), band, DefaultMargins(), intPtr(1))
	assert.True(t, verdict.Emergency)
	assert.Equal(t, []Finding{FindingPresetEmergency}, verdict.Findings)

	verdict = Evaluate(normalAdultVitals(), band, DefaultMargins(), intPtr(2))
	assert.False(t, verdict.Emergency)
	assert.False(t, verdict.Severe)
}

func TestEvaluate_SevereConditions(t *testing.T) {
	band := adultBand(t)
	m := DefaultMargins()

	testCases := []struct {
		name    string
		mutate  func(v *entities.Vitals)
		finding Finding
	}{
		{"systolic borderline", func(v *entities.Vitals) { v.Systolic = band.Systolic.Low + 10 + m.Systolic }, FindingSystolicBorder},
		{"diastolic fixed ceiling", func(v *entities.Vitals) { v.Diastolic = 65 + m.Diastolic }, FindingDiastolicBorder},
		{"heart rate near low", func(v *entities.Vitals) { v.HeartRate = band.HeartRate.Low + 10 - m.HeartRate - epsilon }, FindingHeartRateBorder},
		{"heart rate near high", func(v *entities.Vitals) { v.HeartRate = band.HeartRate.High - 10 + m.HeartRate + epsilon }, FindingHeartRateBorder},
		{"oxygen borderline", func(v *entities.Vitals) { v.Oxygen = band.MinOxygen + 2 - m.Oxygen - epsilon }, FindingOxygenBorderline},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			vitals := normalAdultVitals()
			tc.mutate(&vitals)

			verdict := Evaluate(vitals, band, m, nil)
			assert.False(t, verdict.Emergency)
			assert.True(t, verdict.Severe)
			assert.Equal(t, []Finding{tc.finding}, verdict.Findings)
			assert.Equal(t, entities.PriorityVeryUrgent, verdict.SeedPriority())
		})
	}
}

func TestEvaluate_DiastolicThresholdIsNotBandRelative(t *testing.T) {
	band := adultBand(t)
	vitals := normalAdultVitals()

	vitals.Diastolic = 70
	assert.True(t, Evaluate(vitals, band, DefaultMargins(), nil).Severe)

	vitals.Diastolic = 70.5
	assert.False(t, Evaluate(vitals, band, DefaultMargins(), nil).Severe)
}

func TestEvaluate_ElderlyHypotensionScenario(t *testing.T) {
	band, err := ResolveBand(70)
	require.NoError(t, err)

	vitals := entities.Vitals{Systolic: 85, Diastolic: 70, HeartRate: 90, Oxygen: 95, Temperature: 37}
	verdict := Evaluate(vitals, band, DefaultMargins(), nil)

	assert.False(t, verdict.Emergency)
	assert.True(t, verdict.Severe)
	assert.Contains(t, verdict.Findings, FindingSystolicBorder)
	assert.Equal(t, entities.PriorityVeryUrgent, verdict.SeedPriority())
}

func TestEvaluate_InfantHypoxiaScenario(t *testing.T) {
	band, err := ResolveBand(1)
	require.NoError(t, err)

	vitals := entities.Vitals{Systolic: 90, Diastolic: 50, HeartRate: 120, Oxygen: 80, Temperature: 37}
	verdict := Evaluate(vitals, band, DefaultMargins(), nil)

	assert.True(t, verdict.Emergency)
	assert.Equal(t, []Finding{FindingOxygenLow}, verdict.Findings)
}
