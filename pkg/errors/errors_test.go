package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("invalid", "Edad fuera de rango"), http.StatusUnprocessableEntity},
		{"unauthorized", NewUnauthorizedError("Clave no válida"), http.StatusForbidden},
		{"not found", NewNotFoundError("missing"), http.StatusNotFound},
		{"transient inference", NewModelInferenceError("busy", nil, true), http.StatusServiceUnavailable},
		{"fatal inference", NewModelInferenceError("bad input", nil, false), http.StatusBadGateway},
		{"configuration", NewConfigurationError("no band", nil), http.StatusInternalServerError},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("assess: %w", NewValidationError("invalid")), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_ErrorIncludesDetails(t *testing.T) {
	err := NewValidationError("invalid submission", "Edad fuera de rango", "Temperatura no válida")
	assert.Equal(t, "VALIDATION: invalid submission [Edad fuera de rango; Temperatura no válida]", err.Error())
}

func TestIsTransient(t *testing.T) {
	cause := stderrors.New("timeout")
	err := fmt.Errorf("predict: %w", NewModelInferenceError("classifier timed out", cause, true))

	assert.True(t, IsTransient(err))
	assert.False(t, IsTransient(NewModelInferenceError("malformed", cause, false)))
	assert.False(t, IsTransient(cause))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.ErrorIs(t, appErr, cause)
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(NewSerializationError("bad record", nil), ErrorTypeSerialization))
	assert.False(t, IsType(NewSerializationError("bad record", nil), ErrorTypeValidation))
	assert.False(t, IsType(nil, ErrorTypeValidation))
}
