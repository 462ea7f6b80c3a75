package entities

import (
	"fmt"
	"time"
)

// EmergencyCategory is shown when vitals alone triggered the emergency path.
const EmergencyCategory = "Constantes alteradas"

// Vitals holds the measured vital signs of a patient.
type Vitals struct {
	Temperature float64 `json:"temp"`
	Systolic    float64 `json:"pas"`
	Diastolic   float64 `json:"pad"`
	HeartRate   float64 `json:"frecuencia_cardiaca"`
	Oxygen      float64 `json:"oxigeno"`
}

// Submission is a single triage request. It is not modified after decoding.
type Submission struct {
	Name        string            `json:"nombre"`
	Age         int               `json:"edad"`
	Description string            `json:"descripcion"`
	Category    string            `json:"categoria,omitempty"`
	Answers     map[string]string `json:"respuestas,omitempty"`

	// AssignedPriority lets an upstream system force the emergency path with 1.
	AssignedPriority *int `json:"prioridad_asignada,omitempty"`

	Vitals
}

// RegistryKey identifies a patient in the registry.
func (s *Submission) RegistryKey() string {
	return PatientKey(s.Name, s.Age)
}

// PatientKey builds the name_age registry key.
func PatientKey(name string, age int) string {
	return fmt.Sprintf("%s_%d", name, age)
}

// PatientRecord is the registry snapshot of a triaged patient.
type PatientRecord struct {
	ID                   string             `json:"id" db:"id"`
	Key                  string             `json:"clave" db:"patient_key"`
	Name                 string             `json:"nombre" db:"name"`
	Age                  int                `json:"edad" db:"age"`
	Priority             Priority           `json:"prioridad_num" db:"priority"`
	PriorityLabel        string             `json:"prioridad" db:"priority_label"`
	MLPriority           Priority           `json:"prioridad_ia" db:"ml_priority"`
	MLPriorityLabel      string             `json:"prioridad_ia_str" db:"ml_priority_label"`
	MLConfidence         float64            `json:"confianza_ia" db:"ml_confidence"`
	MLProbabilities      map[string]float64 `json:"probabilidades_ia" db:"ml_probabilities"`
	Category             string             `json:"categoria" db:"category"`
	AffirmativeQuestions []string           `json:"preguntas_si" db:"affirmative_questions"`
	Temperature          float64            `json:"temperatura" db:"temperature"`
	BloodPressure        string             `json:"presion_arterial" db:"blood_pressure"`
	HeartRate            float64            `json:"frecuencia_cardiaca" db:"heart_rate"`
	Oxygen               float64            `json:"oxigeno" db:"oxygen"`
	Description          string             `json:"descripcion" db:"description"`
	Stop                 bool               `json:"detener" db:"stop"`
	Timestamp            int64              `json:"timestamp" db:"timestamp"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
}

// FormatBloodPressure renders systolic/diastolic the way clinicians read it.
func FormatBloodPressure(systolic, diastolic float64) string {
	return fmt.Sprintf("%g/%g", systolic, diastolic)
}
