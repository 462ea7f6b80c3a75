package middleware

import (
	"net/http"
	"time"

	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ObservabilityMiddleware opens a server span per request and records the
// OpenTelemetry request metrics. The span is renamed to the matched route.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.user_agent", r.UserAgent()),
			)

			rec := newStatusRecorder(w)
			start := time.Now()

			// the mux records Pattern on the request value it receives
			req := r.WithContext(ctx)
			next.ServeHTTP(rec, req)

			route := routeOf(req)
			span.SetName(r.Method + " " + route)

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rec.status, time.Since(start))
			observability.SetSpanAttributes(span,
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rec.status),
			)
		})
	}
}
