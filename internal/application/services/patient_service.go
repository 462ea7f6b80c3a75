package services

import (
	"context"
	"crypto/subtle"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/internal/domain/repositories"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/metrics"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

// MsgInvalidKey is returned when the admin key does not match
const MsgInvalidKey = "Clave no válida"

// PatientService serves the nurse dashboard: listing, clearing and
// streaming registry changes.
type PatientService struct {
	registry repositories.PatientRepository
	events   providers.EventBus
	adminKey []byte
}

// NewPatientService creates a new patient service. events may be nil.
func NewPatientService(registry repositories.PatientRepository, events providers.EventBus, adminKey string) *PatientService {
	return &PatientService{
		registry: registry,
		events:   events,
		adminKey: []byte(adminKey),
	}
}

// List returns every registered patient, most urgent first
func (s *PatientService) List(ctx context.Context) ([]*entities.PatientRecord, error) {
	records, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SetRegistrySize(len(records))
	return records, nil
}

// Clear empties the registry when key matches the admin key
func (s *PatientService) Clear(ctx context.Context, key string) error {
	if len(s.adminKey) == 0 || subtle.ConstantTimeCompare([]byte(key), s.adminKey) != 1 {
		metrics.RecordRegistryClear(false)
		observability.LoggerFromContext(ctx).Warn().Msg("Rejected registry clear with invalid key")
		return apperrors.NewUnauthorizedError(MsgInvalidKey)
	}

	if err := s.registry.Clear(ctx); err != nil {
		return err
	}
	metrics.RecordRegistryClear(true)
	metrics.SetRegistrySize(0)

	if s.events != nil {
		if err := s.events.Publish(ctx, providers.EventChannelRegistry, entities.NewRegistryClearedEvent()); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Failed to publish registry cleared event")
		}
	}
	observability.LoggerFromContext(ctx).Info().Msg("Patient registry cleared")
	return nil
}

// Subscribe streams registry changes until ctx is done
func (s *PatientService) Subscribe(ctx context.Context) (<-chan *entities.TriageEvent, error) {
	if s.events == nil {
		return nil, apperrors.NewNotFoundError("registry event stream is not configured")
	}
	return s.events.Subscribe(ctx, providers.EventChannelRegistry)
}
