package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/clinicaltriage/internal/application/services"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/metrics"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
)

const defaultHeartbeatInterval = 30 * time.Second

// SSEHandler pushes registry changes to dashboards as Server-Sent Events
type SSEHandler struct {
	patientService    *services.PatientService
	heartbeatInterval time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(patientService *services.PatientService) *SSEHandler {
	return &SSEHandler{
		patientService:    patientService,
		heartbeatInterval: defaultHeartbeatInterval,
	}
}

// StreamPatients handles GET /pacientes/stream
func (h *SSEHandler) StreamPatients(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	eventChan, err := h.patientService.Subscribe(ctx)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	metrics.StreamOpened()
	defer metrics.StreamClosed()

	h.sendEvent(w, "connected", map[string]interface{}{
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Dashboard disconnected from patient stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Str("event_type", eventType).Msg("Failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
