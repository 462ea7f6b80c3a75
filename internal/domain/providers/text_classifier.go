package providers

import (
	"context"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// TextClassifier predicts a priority distribution from a free-text description.
// Failures are reported as MODEL_INFERENCE AppErrors; Transient marks the
// ones worth retrying.
type TextClassifier interface {
	Predict(ctx context.Context, text string) (*entities.Prediction, error)
}

// Explainer attributes a prediction to the tokens of the description.
type Explainer interface {
	Explain(ctx context.Context, text string) (*entities.Explanation, error)
}

// ClassifierExplainer is a backend that can do both.
type ClassifierExplainer interface {
	TextClassifier
	Explainer
}
