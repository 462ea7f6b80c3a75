// Package registry holds the PatientRepository backends: process memory,
// a Redis hash and a PostgreSQL table.
package registry

import (
	"sort"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// sortForDashboard orders records most urgent first, then by arrival.
func sortForDashboard(records []*entities.PatientRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		return a.Key < b.Key
	})
}

func cloneRecord(r *entities.PatientRecord) *entities.PatientRecord {
	out := *r
	if r.MLProbabilities != nil {
		out.MLProbabilities = make(map[string]float64, len(r.MLProbabilities))
		for k, v := range r.MLProbabilities {
			out.MLProbabilities[k] = v
		}
	}
	if r.AffirmativeQuestions != nil {
		out.AffirmativeQuestions = append([]string(nil), r.AffirmativeQuestions...)
	}
	return &out
}
