package classifier

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type inferenceMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
	cacheLookups    metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metricsOK   bool
	metrics     inferenceMetrics
)

func ensureMetrics() bool {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/clinicaltriage/classifier")

		requestCount, err := meter.Int64Counter(
			"ai.classifier.request.count",
			metric.WithDescription("Number of text classifier requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.classifier.request.duration",
			metric.WithDescription("Text classifier request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.classifier.request.errors",
			metric.WithDescription("Number of text classifier request errors"),
		)
		if err != nil {
			return
		}
		rateLimitWait, err := meter.Float64Histogram(
			"ai.classifier.rate_limit.wait",
			metric.WithDescription("Time spent waiting for the classifier rate limiter in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		cacheLookups, err := meter.Int64Counter(
			"ai.classifier.cache.lookups",
			metric.WithDescription("Prediction cache lookups by result"),
		)
		if err != nil {
			return
		}

		metrics = inferenceMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			rateLimitWait:   rateLimitWait,
			cacheLookups:    cacheLookups,
		}
		metricsOK = true
	})
	return metricsOK
}

func recordInference(ctx context.Context, model, operation string, statusCode int, duration time.Duration, err error) {
	if !ensureMetrics() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.model", model),
		attribute.String("ai.operation", operation),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		metrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	if !ensureMetrics() {
		return
	}
	metrics.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attribute.String("ai.model", model)))
}

func recordCacheLookup(ctx context.Context, hit bool) {
	if !ensureMetrics() {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.result", result)))
}
