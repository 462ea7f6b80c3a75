package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/clinicaltriage/internal/application/services"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
)

// MsgRegistryCleared confirms a successful DELETE /pacientes
const MsgRegistryCleared = "Todos los pacientes han sido eliminados"

// APIKeyHeader carries the admin key for destructive operations
const APIKeyHeader = "X-API-Key"

// PatientHandler serves the nurse dashboard
type PatientHandler struct {
	patientService *services.PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientService *services.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

type patientListResponse struct {
	Patients []json.RawMessage `json:"pacientes"`
}

// ListPatients handles GET /pacientes. A record that cannot be encoded is
// logged and left out rather than failing the whole dashboard.
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	records, err := h.patientService.List(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	resp := patientListResponse{Patients: make([]json.RawMessage, 0, len(records))}
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			observability.LoggerFromContext(r.Context()).Warn().
				Err(err).
				Str("patient_key", record.Key).
				Msg("Skipping unserializable patient record")
			continue
		}
		resp.Patients = append(resp.Patients, data)
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// ClearPatients handles DELETE /pacientes
func (h *PatientHandler) ClearPatients(w http.ResponseWriter, r *http.Request) {
	if err := h.patientService.Clear(r.Context(), r.Header.Get(APIKeyHeader)); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"mensaje": MsgRegistryCleared})
}
