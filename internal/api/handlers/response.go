package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

const msgInternalError = "internal server error"

// errorResponse mirrors the {"detail": ...} body the dashboard expects
type errorResponse struct {
	Detail interface{} `json:"detail"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Detail: message})
}

// respondWithAppError maps err to a status code and a client-safe body.
// Validation failures list every message; internal causes are never exposed.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	appErr, ok := apperrors.As(err)

	logger := observability.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	switch {
	case !ok:
		respondWithError(w, status, msgInternalError)
	case appErr.Type == apperrors.ErrorTypeValidation:
		details := appErr.Details
		if details == nil {
			details = []string{appErr.Message}
		}
		respondWithJSON(w, status, errorResponse{Detail: details})
	case appErr.Type == apperrors.ErrorTypeInternal:
		respondWithError(w, status, msgInternalError)
	default:
		respondWithError(w, status, appErr.Message)
	}
}

// decodeJSON decodes the request body into dst. Malformed JSON is a 400;
// a well-formed body with a wrongly typed field is a validation failure.
func decodeJSON(r *http.Request, dst interface{}) (int, error) {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return http.StatusUnprocessableEntity, apperrors.NewValidationError(
				"invalid field type", "Tipo inválido para el campo "+typeErr.Field)
		}
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}
