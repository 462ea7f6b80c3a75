package classifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// reservedTokens are tokenizer control symbols that never carry meaning
var reservedTokens = map[string]struct{}{
	"<s>":    {},
	"</s>":   {},
	"<pad>":  {},
	"<unk>":  {},
	"<mask>": {},
	"[CLS]":  {},
	"[SEP]":  {},
	"[PAD]":  {},
	"[UNK]":  {},
	"[MASK]": {},
}

// wordBoundary is the SentencePiece marker for a token that starts a word
const wordBoundary = "▁"

// newPrediction validates and normalises a five-class distribution.
// Ties resolve to the more urgent class.
func newPrediction(probabilities []float64, model string) (*entities.Prediction, error) {
	if len(probabilities) != entities.PriorityLevels {
		return nil, apperrors.NewModelInferenceError(
			fmt.Sprintf("classifier returned %d classes, want %d", len(probabilities), entities.PriorityLevels), nil, false)
	}

	dist := make([]float64, entities.PriorityLevels)
	copy(dist, probabilities)
	for _, p := range dist {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return nil, apperrors.NewModelInferenceError(fmt.Sprintf("classifier returned invalid probability %v", p), nil, false)
		}
	}

	total := floats.Sum(dist)
	if total <= 0 {
		return nil, apperrors.NewModelInferenceError("classifier returned an all-zero distribution", nil, false)
	}
	floats.Scale(1/total, dist)

	idx := floats.MaxIdx(dist)
	pred := &entities.Prediction{
		Priority:   entities.Priority(idx + 1),
		Confidence: dist[idx],
		Model:      model,
	}
	copy(pred.Distribution[:], dist)
	return pred, nil
}

// CleanAttributions drops reserved tokens, turns the word-boundary marker
// into a space and rounds scores to four decimals.
func CleanAttributions(tokens []entities.TokenAttribution) []entities.TokenAttribution {
	out := make([]entities.TokenAttribution, 0, len(tokens))
	for _, t := range tokens {
		if _, reserved := reservedTokens[t.Token]; reserved {
			continue
		}
		out = append(out, entities.TokenAttribution{
			Token: strings.ReplaceAll(t.Token, wordBoundary, " "),
			Score: roundScore(t.Score),
		})
	}
	return out
}

func roundScore(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// softmax turns raw scores into a distribution in place.
func softmax(scores []float64) {
	maxScore := floats.Max(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - maxScore)
	}
	floats.Scale(1/floats.Sum(scores), scores)
}
