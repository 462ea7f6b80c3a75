package handlers

import (
	"net/http"

	"github.com/zatekoja/clinicaltriage/internal/application/services"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// TriageHandler handles patient intake and explanation requests
type TriageHandler struct {
	triageService  *services.TriageService
	explainService *services.ExplainService
}

// NewTriageHandler creates a new triage handler
func NewTriageHandler(triageService *services.TriageService, explainService *services.ExplainService) *TriageHandler {
	return &TriageHandler{
		triageService:  triageService,
		explainService: explainService,
	}
}

// Triage handles POST /triaje
func (h *TriageHandler) Triage(w http.ResponseWriter, r *http.Request) {
	var sub entities.Submission
	if status, err := decodeJSON(r, &sub); err != nil {
		if status == http.StatusBadRequest {
			respondWithError(w, status, "invalid request body")
			return
		}
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.triageService.Assess(r.Context(), &sub)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type explainRequest struct {
	Description string `json:"descripcion"`
}

// Explain handles POST /explicar
func (h *TriageHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if status, err := decodeJSON(r, &req); err != nil {
		if status == http.StatusBadRequest {
			respondWithError(w, status, "invalid request body")
			return
		}
		respondWithAppError(w, r, err)
		return
	}

	explanation, err := h.explainService.Explain(r.Context(), req.Description)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, explanation)
}
