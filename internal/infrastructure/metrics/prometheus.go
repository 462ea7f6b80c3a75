package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Triage metrics
	assessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_assessments_total",
			Help: "Triage assessments by deciding path (rule or ml) and priority",
		},
		[]string{"path", "priority"},
	)

	emergenciesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_emergencies_total",
			Help: "Assessments that raised the stop flag",
		},
	)

	disagreementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_priority_disagreement_total",
			Help: "Assessments where the rule engine and the text classifier disagree",
		},
		[]string{"direction"},
	)

	validationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_validation_failures_total",
			Help: "Submissions rejected by range validation",
		},
	)

	inferenceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_inference_errors_total",
			Help: "Text classifier failures by kind",
		},
		[]string{"kind"},
	)

	registryClearsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_registry_clears_total",
			Help: "Registry clear attempts by outcome",
		},
		[]string{"outcome"},
	)

	registrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "triage_registry_patients",
			Help: "Patients currently in the registry",
		},
	)

	streamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "triage_stream_subscribers",
			Help: "Open dashboard event streams",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency labelled by route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// --- Triage metric helpers ---

// RecordAssessment records the priorities of one accepted submission.
// The ml path counts the classifier's own opinion; the rule path counts what was shown.
func RecordAssessment(rulePriority, mlPriority int, stop bool) {
	assessmentsTotal.WithLabelValues("rule", strconv.Itoa(rulePriority)).Inc()
	assessmentsTotal.WithLabelValues("ml", strconv.Itoa(mlPriority)).Inc()
	if stop {
		emergenciesTotal.Inc()
	}
	switch {
	case mlPriority < rulePriority:
		disagreementsTotal.WithLabelValues("ml_more_urgent").Inc()
	case mlPriority > rulePriority:
		disagreementsTotal.WithLabelValues("rule_more_urgent").Inc()
	}
}

// RecordValidationFailure records a rejected submission
func RecordValidationFailure() {
	validationFailuresTotal.Inc()
}

// RecordInferenceError records a classifier failure
func RecordInferenceError(transient bool) {
	kind := "fatal"
	if transient {
		kind = "transient"
	}
	inferenceErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordRegistryClear records a clear attempt
func RecordRegistryClear(allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "cleared"
	}
	registryClearsTotal.WithLabelValues(outcome).Inc()
}

// SetRegistrySize records the number of patients in the registry
func SetRegistrySize(n int) {
	registrySize.Set(float64(n))
}

// StreamOpened and StreamClosed track open event streams
func StreamOpened() { streamSubscribers.Inc() }

// StreamClosed decrements the open stream gauge
func StreamClosed() { streamSubscribers.Dec() }
