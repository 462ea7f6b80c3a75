package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Predict(ctx context.Context, text string) (*entities.Prediction, error) {
	args := m.Called(ctx, text)
	if p := args.Get(0); p != nil {
		return p.(*entities.Prediction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClassifier) Explain(ctx context.Context, text string) (*entities.Explanation, error) {
	args := m.Called(ctx, text)
	if e := args.Get(0); e != nil {
		return e.(*entities.Explanation), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRepository) List(ctx context.Context) ([]*entities.PatientRecord, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]*entities.PatientRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) Publish(ctx context.Context, channel string, event *entities.TriageEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *mockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.TriageEvent, error) {
	args := m.Called(ctx, channel)
	if ch := args.Get(0); ch != nil {
		return ch.(<-chan *entities.TriageEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEventBus) Close() error {
	return m.Called().Error(0)
}

func testCatalog() entities.Catalog {
	return entities.NewCatalog(
		entities.CategoryQuestions{Category: "respiratorio", Questions: []entities.Question{
			{Key: "disnea", Prompt: "¿Dificultad para respirar?", Priority: entities.PriorityImmediate},
			{Key: "tos", Prompt: "¿Tos persistente?", Priority: entities.PriorityLessUrgent},
		}},
		entities.CategoryQuestions{Category: "digestivo", Questions: []entities.Question{
			{Key: "vomitos", Prompt: "¿Vómitos repetidos?", Priority: entities.PriorityUrgent},
		}},
	)
}

func stableSubmission() *entities.Submission {
	return &entities.Submission{
		Name:        "Ana",
		Age:         40,
		Description: "tos leve desde ayer",
		Vitals: entities.Vitals{
			Temperature: 36.8,
			Systolic:    120,
			Diastolic:   85,
			HeartRate:   75,
			Oxygen:      98,
		},
	}
}

func predictionFor(p entities.Priority) *entities.Prediction {
	var dist [entities.PriorityLevels]float64
	dist[p-1] = 1
	return &entities.Prediction{Priority: p, Confidence: 1, Distribution: dist, Model: "test"}
}
