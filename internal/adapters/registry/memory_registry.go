package registry

import (
	"context"
	"sync"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/repositories"
)

// MemoryRegistry keeps records in process memory. Contents are lost on restart.
type MemoryRegistry struct {
	mu      sync.RWMutex
	records map[string]*entities.PatientRecord
}

// NewMemoryRegistry creates an empty in-memory registry
func NewMemoryRegistry() repositories.PatientRepository {
	return &MemoryRegistry{records: make(map[string]*entities.PatientRecord)}
}

// Upsert stores a copy of the record under its key, replacing any previous one
func (r *MemoryRegistry) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	stored := cloneRecord(record)

	r.mu.Lock()
	r.records[record.Key] = stored
	r.mu.Unlock()
	return nil
}

// List returns copies of all records in dashboard order
func (r *MemoryRegistry) List(ctx context.Context) ([]*entities.PatientRecord, error) {
	r.mu.RLock()
	out := make([]*entities.PatientRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, cloneRecord(rec))
	}
	r.mu.RUnlock()

	sortForDashboard(out)
	return out, nil
}

// Clear removes every record
func (r *MemoryRegistry) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.records = make(map[string]*entities.PatientRecord)
	r.mu.Unlock()
	return nil
}

// Count returns the number of stored records
func (r *MemoryRegistry) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}
