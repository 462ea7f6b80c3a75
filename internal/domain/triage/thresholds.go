package triage

import (
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// Finding names a vital-sign condition that fired.
type Finding string

const (
	FindingPresetEmergency  Finding = "preset_emergency"
	FindingSystolicLow      Finding = "systolic_low"
	FindingDiastolicLow     Finding = "diastolic_low"
	FindingDiastolicHigh    Finding = "diastolic_high"
	FindingHeartRate        Finding = "heart_rate_out_of_range"
	FindingOxygenLow        Finding = "oxygen_low"
	FindingTemperature      Finding = "temperature_out_of_range"
	FindingSystolicBorder   Finding = "systolic_borderline"
	FindingDiastolicBorder  Finding = "diastolic_borderline"
	FindingHeartRateBorder  Finding = "heart_rate_borderline"
	FindingOxygenBorderline Finding = "oxygen_borderline"
)

// severeDiastolicCeiling is absolute, unlike every other band-relative threshold.
const severeDiastolicCeiling = 65.0

// Verdict is the outcome of checking vitals against a reference band.
type Verdict struct {
	Emergency bool      `json:"is_emergency"`
	Severe    bool      `json:"is_severe"`
	Findings  []Finding `json:"findings"`
}

// SeedPriority converts the verdict to the starting priority: 1, 2 or 5.
func (v Verdict) SeedPriority() entities.Priority {
	switch {
	case v.Emergency:
		return entities.PriorityImmediate
	case v.Severe:
		return entities.PriorityVeryUrgent
	default:
		return entities.DefaultPriority
	}
}

// Evaluate checks vitals for emergency (priority 1) and, failing that, severe
// (priority 2) conditions. A preset priority of 1 forces the emergency path.
func Evaluate(v entities.Vitals, band ReferenceBand, m Margins, preset *int) Verdict {
	findings := emergencyFindings(v, band, m)
	if preset != nil && *preset == int(entities.PriorityImmediate) {
		findings = append([]Finding{FindingPresetEmergency}, findings...)
	}
	if len(findings) > 0 {
		return Verdict{Emergency: true, Findings: findings}
	}

	findings = severeFindings(v, band, m)
	return Verdict{Severe: len(findings) > 0, Findings: findings}
}

func emergencyFindings(v entities.Vitals, band ReferenceBand, m Margins) []Finding {
	var out []Finding
	if v.Systolic < band.Systolic.Low-m.Systolic {
		out = append(out, FindingSystolicLow)
	}
	if v.Diastolic < band.Diastolic.Low-m.Diastolic {
		out = append(out, FindingDiastolicLow)
	}
	if v.Diastolic > band.Diastolic.High+m.Diastolic {
		out = append(out, FindingDiastolicHigh)
	}
	if !within(v.HeartRate, band.HeartRate.Low-m.HeartRate, band.HeartRate.High+m.HeartRate) {
		out = append(out, FindingHeartRate)
	}
	if v.Oxygen < band.MinOxygen-m.Oxygen {
		out = append(out, FindingOxygenLow)
	}
	if !within(v.Temperature, band.Temperature.Low-m.Temperature, band.Temperature.High+m.Temperature) {
		out = append(out, FindingTemperature)
	}
	return out
}

func severeFindings(v entities.Vitals, band ReferenceBand, m Margins) []Finding {
	var out []Finding
	if v.Systolic <= band.Systolic.Low+10+m.Systolic {
		out = append(out, FindingSystolicBorder)
	}
	if v.Diastolic <= severeDiastolicCeiling+m.Diastolic {
		out = append(out, FindingDiastolicBorder)
	}
	if !within(v.HeartRate, band.HeartRate.Low+10-m.HeartRate, band.HeartRate.High-10+m.HeartRate) {
		out = append(out, FindingHeartRateBorder)
	}
	if v.Oxygen < band.MinOxygen+2-m.Oxygen {
		out = append(out, FindingOxygenBorderline)
	}
	return out
}

func within(value, low, high float64) bool {
	return low <= value && value <= high
}
