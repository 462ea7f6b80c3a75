package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/internal/domain/repositories"
	"github.com/zatekoja/clinicaltriage/internal/domain/triage"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/metrics"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const defaultInferenceTimeout = 5 * time.Second

// TriageResult is what the intake screen shows after a submission.
// The rule and ML priorities are reported side by side, never blended.
type TriageResult struct {
	Priority   string `json:"prioridad"`
	MLPriority string `json:"prioridad_ia"`
	Stop       bool   `json:"detener"`

	Record *entities.PatientRecord `json:"-"`
}

// TriageService runs the rule engine and the text classifier for a
// submission and stores the outcome in the patient registry.
type TriageService struct {
	engine           *triage.Engine
	classifier       providers.TextClassifier
	registry         repositories.PatientRepository
	events           providers.EventBus
	otelMetrics      *observability.Metrics
	inferenceTimeout time.Duration
	now              func() time.Time
}

// TriageOption configures a TriageService
type TriageOption func(*TriageService)

// WithEventBus publishes registry changes to dashboards
func WithEventBus(bus providers.EventBus) TriageOption {
	return func(s *TriageService) { s.events = bus }
}

// WithMetrics records OpenTelemetry assessment metrics
func WithMetrics(m *observability.Metrics) TriageOption {
	return func(s *TriageService) { s.otelMetrics = m }
}

// WithInferenceTimeout bounds each classifier call
func WithInferenceTimeout(d time.Duration) TriageOption {
	return func(s *TriageService) {
		if d > 0 {
			s.inferenceTimeout = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) TriageOption {
	return func(s *TriageService) { s.now = now }
}

// NewTriageService creates a new triage service
func NewTriageService(
	engine *triage.Engine,
	classifier providers.TextClassifier,
	registry repositories.PatientRepository,
	opts ...TriageOption,
) *TriageService {
	s := &TriageService{
		engine:           engine,
		classifier:       classifier,
		registry:         registry,
		inferenceTimeout: defaultInferenceTimeout,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess validates the submission, runs both priority paths concurrently,
// upserts the patient record and announces it.
func (s *TriageService) Assess(ctx context.Context, sub *entities.Submission) (*TriageResult, error) {
	start := s.now()
	ctx, span := observability.StartSpan(ctx, "TriageService.Assess")
	defer span.End()

	if err := triage.Validate(sub); err != nil {
		metrics.RecordValidationFailure()
		return nil, err
	}

	var (
		assessment *triage.Assessment
		prediction *entities.Prediction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assessment, err = s.engine.Assess(sub)
		return err
	})
	g.Go(func() error {
		var err error
		prediction, err = s.predict(gctx, sub.Description)
		return err
	})
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	record := s.buildRecord(sub, assessment, prediction)
	if err := s.registry.Upsert(ctx, record); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx)
	if s.events != nil {
		if err := s.events.Publish(ctx, providers.EventChannelRegistry, entities.NewPatientUpsertedEvent(record)); err != nil {
			logger.Warn().Err(err).Str("patient_key", record.Key).Msg("Failed to publish triage event")
		}
	}
	if n, err := s.registry.Count(ctx); err == nil {
		metrics.SetRegistrySize(n)
	}

	metrics.RecordAssessment(int(record.Priority), int(record.MLPriority), record.Stop)
	observability.RecordAssessment(ctx, s.otelMetrics, int(record.Priority), record.Stop, s.now().Sub(start))
	observability.SetSpanAttributes(span,
		attribute.Int("triage.priority", int(record.Priority)),
		attribute.Int("triage.ml_priority", int(record.MLPriority)),
		attribute.Bool("triage.stop", record.Stop),
	)

	logger.Info().
		Str("patient_key", record.Key).
		Int("priority", int(record.Priority)).
		Int("ml_priority", int(record.MLPriority)).
		Bool("stop", record.Stop).
		Strs("findings", findingNames(assessment.Verdict.Findings)).
		Msg("Patient triaged")

	return &TriageResult{
		Priority:   record.PriorityLabel,
		MLPriority: record.MLPriority.Label(),
		Stop:       record.Stop,
		Record:     record,
	}, nil
}

func (s *TriageService) predict(ctx context.Context, text string) (*entities.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.inferenceTimeout)
	defer cancel()

	start := s.now()
	pred, err := s.classifier.Predict(ctx, text)
	model := ""
	if pred != nil {
		model = pred.Model
	}
	observability.RecordInference(ctx, s.otelMetrics, model, s.now().Sub(start), err)

	if err != nil {
		err = asInferenceError(err)
		metrics.RecordInferenceError(apperrors.IsTransient(err))
		return nil, err
	}
	return pred, nil
}

// asInferenceError keeps classified errors and classifies the rest by cause.
func asInferenceError(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	transient := errors.Is(err, context.DeadlineExceeded)
	return apperrors.NewModelInferenceError("text classification failed", err, transient)
}

func (s *TriageService) buildRecord(sub *entities.Submission, a *triage.Assessment, p *entities.Prediction) *entities.PatientRecord {
	now := s.now().UTC()

	category := a.Category
	if category == "" {
		category = entities.EmergencyCategory
	}

	return &entities.PatientRecord{
		ID:                   uuid.NewString(),
		Key:                  sub.RegistryKey(),
		Name:                 sub.Name,
		Age:                  sub.Age,
		Priority:             a.Priority,
		PriorityLabel:        a.Priority.Label(),
		MLPriority:           p.Priority,
		MLPriorityLabel:      p.Priority.Short(),
		MLConfidence:         p.Confidence,
		MLProbabilities:      p.ProbabilityMap(),
		Category:             category,
		AffirmativeQuestions: a.AffirmativeQuestions,
		Temperature:          sub.Temperature,
		BloodPressure:        entities.FormatBloodPressure(sub.Systolic, sub.Diastolic),
		HeartRate:            sub.HeartRate,
		Oxygen:               sub.Oxygen,
		Description:          sub.Description,
		Stop:                 a.Stop,
		Timestamp:            now.Unix(),
		CreatedAt:            now,
	}
}

func findingNames(findings []triage.Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = string(f)
	}
	return out
}
