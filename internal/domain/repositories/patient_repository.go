package repositories

import (
	"context"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// PatientRepository stores triaged patient records keyed by name_age.
// Implementations own their synchronization; a later Upsert with the same
// key replaces the earlier record.
type PatientRepository interface {
	Upsert(ctx context.Context, record *entities.PatientRecord) error
	List(ctx context.Context) ([]*entities.PatientRecord, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
