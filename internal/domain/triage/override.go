package triage

import (
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/pkg/utils"
)

// ApplyAnswers lowers current by the priority of every affirmatively answered
// question of category. It never raises the number. The prompts of the
// affirmative questions are returned in catalog order; the slice is never nil.
func ApplyAnswers(current entities.Priority, category string, answers map[string]string, catalog entities.Catalog) (entities.Priority, []string) {
	affirmative := []string{}
	if category == "" || !catalog.Has(category) {
		return current, affirmative
	}

	priority := current
	for _, q := range catalog.Questions(category) {
		if !utils.IsAffirmative(answers[q.Key]) {
			continue
		}
		priority = entities.MoreUrgent(priority, q.Priority)
		affirmative = append(affirmative, q.Prompt)
	}
	return priority, affirmative
}
