package triage

import (
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// Outcome is the reconciled rule-based result.
type Outcome struct {
	Seed                 entities.Priority `json:"seed"`
	Priority             entities.Priority `json:"priority"`
	Stop                 bool              `json:"detener"`
	AffirmativeQuestions []string          `json:"preguntas_si"`
}

// Reconcile seeds the priority from the verdict and then applies the answers.
// Stop is set only when the emergency path fired.
func Reconcile(verdict Verdict, category string, answers map[string]string, catalog entities.Catalog) Outcome {
	seed := verdict.SeedPriority()
	priority, affirmative := ApplyAnswers(seed, category, answers, catalog)
	return Outcome{
		Seed:                 seed,
		Priority:             priority,
		Stop:                 verdict.Emergency,
		AffirmativeQuestions: affirmative,
	}
}

// Assessment is the full rule-path result for one submission.
type Assessment struct {
	Outcome
	Band     ReferenceBand `json:"band"`
	Verdict  Verdict       `json:"verdict"`
	Category string        `json:"categoria"`
}

// Engine runs the rule path with a fixed band table, margins and catalog.
type Engine struct {
	bands   *BandTable
	margins Margins
	catalog entities.Catalog
}

// Option configures an Engine.
type Option func(*Engine)

// WithBandTable replaces the default age brackets.
func WithBandTable(t *BandTable) Option {
	return func(e *Engine) {
		e.bands = t
	}
}

// WithMargins replaces the default measurement margins.
func WithMargins(m Margins) Option {
	return func(e *Engine) {
		e.margins = m
	}
}

// NewEngine creates a rule engine over catalog.
func NewEngine(catalog entities.Catalog, opts ...Option) *Engine {
	e := &Engine{
		bands:   DefaultBandTable(),
		margins: DefaultMargins(),
		catalog: catalog,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the engine's question catalog.
func (e *Engine) Catalog() entities.Catalog {
	return e.catalog
}

// Assess resolves the band, evaluates the vitals and reconciles the answers.
// The submission must already be valid.
func (e *Engine) Assess(sub *entities.Submission) (*Assessment, error) {
	band, err := e.bands.Resolve(sub.Age)
	if err != nil {
		return nil, err
	}

	verdict := Evaluate(sub.Vitals, band, e.margins, sub.AssignedPriority)

	category := sub.Category
	if verdict.Emergency && category == "" {
		category = entities.EmergencyCategory
	}

	return &Assessment{
		Outcome:  Reconcile(verdict, category, sub.Answers, e.catalog),
		Band:     band,
		Verdict:  verdict,
		Category: category,
	}, nil
}
