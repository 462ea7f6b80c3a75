package evaluation

import (
	"time"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// Difficulty grades how hard a golden case is to triage.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"   // textbook presentation
	DifficultyMedium Difficulty = "medium" // borderline vitals or vague description
	DifficultyHard   Difficulty = "hard"   // vitals and description disagree
)

// IsValid checks if the difficulty is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GoldenCase is a submission labelled with the priority a senior clinician assigned.
type GoldenCase struct {
	ID               string              `json:"id"`
	Patient          entities.Submission `json:"paciente"`
	ExpectedPriority entities.Priority   `json:"prioridad_esperada"`
	Difficulty       Difficulty          `json:"difficulty"`
}

// EvalResult holds the evaluation outcome for a single case.
type EvalResult struct {
	CaseID       string
	Difficulty   Difficulty
	Expected     entities.Priority
	RulePriority entities.Priority
	MLPriority   entities.Priority // zero when no classifier ran or it abstained
	MLConfidence float64
	Stop         bool
	Latency      time.Duration
}

// EvalSummary holds aggregate metrics across all golden cases.
type EvalSummary struct {
	TotalCases int
	Evaluated  int
	Failed     int // rejected by validation or the classifier

	RuleAccuracy    float64
	RuleUnderTriage float64 // share of cases triaged less urgently than labelled
	RuleOverTriage  float64
	RuleMeanAbsErr  float64
	RuleKappa       float64
	RuleConfusion   ConfusionMatrix

	MLEvaluated   int
	MLAbstentions int
	MLAccuracy    float64
	MLUnderTriage float64
	MLMeanAbsErr  float64
	MLConfusion   ConfusionMatrix

	AvgLatency   time.Duration
	ByDifficulty map[Difficulty]*DifficultySummary
}

// DifficultySummary holds rule-path metrics grouped by difficulty.
type DifficultySummary struct {
	Count           int
	RuleAccuracy    float64
	RuleUnderTriage float64
}
