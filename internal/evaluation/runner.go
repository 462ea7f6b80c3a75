package evaluation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/internal/domain/triage"
)

// Runner runs evaluation across a set of golden cases.
type Runner struct {
	engine     *triage.Engine
	classifier providers.TextClassifier
	guardrails *Guardrails
}

// NewRunner creates a runner; classifier may be nil to score the rule path only.
func NewRunner(engine *triage.Engine, classifier providers.TextClassifier, guardrails *Guardrails) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &Runner{engine: engine, classifier: classifier, guardrails: guardrails}
}

func (r *Runner) Run(ctx context.Context, cases []GoldenCase) (*EvalSummary, error) {
	cases = r.guardrails.LimitCases(cases)
	summary := &EvalSummary{
		TotalCases:   len(cases),
		ByDifficulty: make(map[Difficulty]*DifficultySummary),
	}

	var results []EvalResult
	for i := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := r.evaluate(ctx, &cases[i])
		if err != nil {
			log.Warn().Err(err).Str("case_id", cases[i].ID).Msg("Skipping golden case")
			summary.Failed++
			continue
		}
		results = append(results, res)
	}

	r.summarize(summary, results)
	return summary, nil
}

func (r *Runner) evaluate(ctx context.Context, gc *GoldenCase) (EvalResult, error) {
	start := time.Now()
	res := EvalResult{CaseID: gc.ID, Difficulty: gc.Difficulty, Expected: gc.ExpectedPriority}

	if err := triage.Validate(&gc.Patient); err != nil {
		return res, err
	}
	assessment, err := r.engine.Assess(&gc.Patient)
	if err != nil {
		return res, err
	}
	res.RulePriority = assessment.Priority
	res.Stop = assessment.Stop

	if r.classifier != nil {
		pred, err := r.classifier.Predict(ctx, gc.Patient.Description)
		if err != nil {
			return res, err
		}
		res.MLConfidence = pred.Confidence
		if r.guardrails.TrustPrediction(pred.Confidence) {
			res.MLPriority = pred.Priority
		}
	}

	res.Latency = time.Since(start)
	return res, nil
}

func (r *Runner) summarize(s *EvalSummary, results []EvalResult) {
	s.Evaluated = len(results)
	if s.Evaluated == 0 {
		return
	}

	var (
		expected, rule     []entities.Priority
		mlExpected, mlPred []entities.Priority
		byDifficulty       = make(map[Difficulty][2][]entities.Priority)
		totalLatency       time.Duration
	)

	for _, res := range results {
		expected = append(expected, res.Expected)
		rule = append(rule, res.RulePriority)
		s.RuleConfusion.Add(res.Expected, res.RulePriority)
		totalLatency += res.Latency

		d := byDifficulty[res.Difficulty]
		d[0] = append(d[0], res.Expected)
		d[1] = append(d[1], res.RulePriority)
		byDifficulty[res.Difficulty] = d

		if r.classifier == nil {
			continue
		}
		if !res.MLPriority.Valid() {
			s.MLAbstentions++
			continue
		}
		mlExpected = append(mlExpected, res.Expected)
		mlPred = append(mlPred, res.MLPriority)
		s.MLConfusion.Add(res.Expected, res.MLPriority)
	}

	s.RuleAccuracy = Accuracy(expected, rule)
	s.RuleUnderTriage = UnderTriageRate(expected, rule)
	s.RuleOverTriage = OverTriageRate(expected, rule)
	s.RuleMeanAbsErr = MeanAbsoluteError(expected, rule)
	s.RuleKappa = CohenKappa(s.RuleConfusion)
	s.AvgLatency = totalLatency / time.Duration(s.Evaluated)

	s.MLEvaluated = len(mlPred)
	s.MLAccuracy = Accuracy(mlExpected, mlPred)
	s.MLUnderTriage = UnderTriageRate(mlExpected, mlPred)
	s.MLMeanAbsErr = MeanAbsoluteError(mlExpected, mlPred)

	for d, pair := range byDifficulty {
		s.ByDifficulty[d] = &DifficultySummary{
			Count:           len(pair[0]),
			RuleAccuracy:    Accuracy(pair[0], pair[1]),
			RuleUnderTriage: UnderTriageRate(pair[0], pair[1]),
		}
	}
}
