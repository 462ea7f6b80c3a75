package evaluation

// GuardrailConfig bounds how much of a run is trusted.
type GuardrailConfig struct {
	// MinMLConfidence below which a classifier prediction counts as an abstention.
	MinMLConfidence float64
	// MaxCases caps the run; 0 means no cap.
	MaxCases int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxCases < 0 {
		config.MaxCases = 0
	}
	return &Guardrails{config: config}
}

// TrustPrediction reports whether a prediction is confident enough to score.
func (g *Guardrails) TrustPrediction(confidence float64) bool {
	return confidence >= g.config.MinMLConfidence
}

// LimitCases truncates cases to the configured maximum.
func (g *Guardrails) LimitCases(cases []GoldenCase) []GoldenCase {
	if g.config.MaxCases > 0 && len(cases) > g.config.MaxCases {
		return cases[:g.config.MaxCases]
	}
	return cases
}
