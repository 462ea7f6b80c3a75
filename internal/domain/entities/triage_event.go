package entities

import (
	"time"

	"github.com/google/uuid"
)

// TriageEventType represents what changed in the registry
type TriageEventType string

const (
	TriageEventPatientUpserted TriageEventType = "patient_upserted"
	TriageEventRegistryCleared TriageEventType = "registry_cleared"
)

// TriageEvent is pushed to dashboards when the registry changes
type TriageEvent struct {
	ID         string          `json:"id"`
	EventType  TriageEventType `json:"event_type"`
	PatientKey string          `json:"clave,omitempty"`
	Priority   Priority        `json:"prioridad,omitempty"`
	Stop       bool            `json:"detener,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewPatientUpsertedEvent creates an event for a new or replaced record
func NewPatientUpsertedEvent(record *PatientRecord) *TriageEvent {
	return &TriageEvent{
		ID:         uuid.NewString(),
		EventType:  TriageEventPatientUpserted,
		PatientKey: record.Key,
		Priority:   record.Priority,
		Stop:       record.Stop,
		Timestamp:  time.Now().UTC(),
	}
}

// NewRegistryClearedEvent creates an event for a bulk clear
func NewRegistryClearedEvent() *TriageEvent {
	return &TriageEvent{
		ID:        uuid.NewString(),
		EventType: TriageEventRegistryCleared,
		Timestamp: time.Now().UTC(),
	}
}
