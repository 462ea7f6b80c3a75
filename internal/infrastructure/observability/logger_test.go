package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func restoreLogger(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestInitLogger_ProductionWritesJSON(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	initLogger(&buf, "clinical-triage", "production", "debug")

	GetLogger().Info().Str("patient_key", "Ana_30").Msg("assessed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "clinical-triage", entry["service"])
	assert.Equal(t, "Ana_30", entry["patient_key"])
	assert.Equal(t, "assessed", entry["message"])
}

func TestInitLogger_LevelFilters(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	initLogger(&buf, "svc", "production", "warn")

	GetLogger().Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	initLogger(&buf, "svc", "production", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestLoggerFromContext_AddsTraceIDs(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	initLogger(&buf, "svc", "production", "info")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	LoggerFromContext(ctx).Info().Msg("traced")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, spanID.String(), entry["span_id"])
}
