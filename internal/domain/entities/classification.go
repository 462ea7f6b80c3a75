package entities

import "strconv"

// Prediction is the text classifier's output for one description.
type Prediction struct {
	Priority     Priority                `json:"priority"`
	Confidence   float64                 `json:"confidence"`
	Distribution [PriorityLevels]float64 `json:"distribution"`
	Model        string                  `json:"model,omitempty"`
}

// ProbabilityMap keys the distribution by priority number ("1".."5").
func (p *Prediction) ProbabilityMap() map[string]float64 {
	out := make(map[string]float64, PriorityLevels)
	for i, v := range p.Distribution {
		out[strconv.Itoa(i+1)] = v
	}
	return out
}

// TokenAttribution is one token's contribution towards the predicted class.
type TokenAttribution struct {
	Token string  `json:"token"`
	Score float64 `json:"shap"`
}

// Explanation pairs a prediction with per-token contributions.
type Explanation struct {
	Text     string             `json:"descripcion"`
	Priority Priority           `json:"prediccion"`
	Tokens   []TokenAttribution `json:"shap_texto"`
	Model    string             `json:"modelo,omitempty"`
}
