package services

import (
	"context"
	"time"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/metrics"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

// ExplainService attributes the classifier's prediction to description tokens
type ExplainService struct {
	explainer providers.Explainer
	timeout   time.Duration
}

// NewExplainService creates a new explain service; timeout <= 0 uses the default
func NewExplainService(explainer providers.Explainer, timeout time.Duration) *ExplainService {
	if timeout <= 0 {
		timeout = defaultInferenceTimeout
	}
	return &ExplainService{explainer: explainer, timeout: timeout}
}

// Explain runs the explainer on the description. Explanations are slower
// than predictions, so the bound is twice the inference timeout.
func (s *ExplainService) Explain(ctx context.Context, description string) (*entities.Explanation, error) {
	ctx, span := observability.StartSpan(ctx, "ExplainService.Explain")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 2*s.timeout)
	defer cancel()

	exp, err := s.explainer.Explain(ctx, description)
	if err != nil {
		err = asInferenceError(err)
		metrics.RecordInferenceError(apperrors.IsTransient(err))
		observability.RecordError(span, err)
		return nil, err
	}
	if exp.Tokens == nil {
		exp.Tokens = []entities.TokenAttribution{}
	}
	return exp, nil
}
