package routes

import (
	"net/http"

	"github.com/zatekoja/clinicaltriage/internal/api/handlers"
	"github.com/zatekoja/clinicaltriage/internal/api/middleware"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/metrics"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler  *handlers.HealthHandler
	catalogHandler *handlers.CatalogHandler
	triageHandler  *handlers.TriageHandler
	patientHandler *handlers.PatientHandler
	sseHandler     *handlers.SSEHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	healthHandler *handlers.HealthHandler,
	catalogHandler *handlers.CatalogHandler,
	triageHandler *handlers.TriageHandler,
	patientHandler *handlers.PatientHandler,
	sseHandler *handlers.SSEHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		healthHandler:  healthHandler,
		catalogHandler: catalogHandler,
		triageHandler:  triageHandler,
		patientHandler: patientHandler,
		sseHandler:     sseHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.Handle("GET /metrics", metrics.Handler())

	// Question catalog
	r.mux.HandleFunc("GET /categorias", r.catalogHandler.ListCategories)
	r.mux.HandleFunc("GET /preguntas/{categoria}", r.catalogHandler.ListQuestions)

	// Intake
	r.mux.HandleFunc("POST /triaje", r.triageHandler.Triage)
	r.mux.HandleFunc("POST /explicar", r.triageHandler.Explain)

	// Dashboard
	r.mux.HandleFunc("GET /pacientes", r.patientHandler.ListPatients)
	r.mux.HandleFunc("DELETE /pacientes", r.patientHandler.ClearPatients)
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /pacientes/stream", r.sseHandler.StreamPatients)
	}

	// Prometheus reads the route pattern set by the mux, so it wraps the mux directly.
	var handler http.Handler = metrics.Middleware(r.mux)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CatalogCaching(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflight never reaches the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
