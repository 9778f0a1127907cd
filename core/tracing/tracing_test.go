package tracing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"asset-exporter/core/tracing"
)

func TestInit_Disabled(t *testing.T) {
	tp, shutdown, err := tracing.Init(context.Background(), tracing.Config{}, zap.NewNop())
	require.NoError(t, err)

	_, span := tp.Tracer(tracing.TracerName).Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_Stdout(t *testing.T) {
	tp, shutdown, err := tracing.Init(context.Background(), tracing.Config{Enabled: true}, zap.NewNop())
	require.NoError(t, err)

	_, span := tp.Tracer(tracing.TracerName).Start(context.Background(), "run")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewProvider_ExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := tracing.NewProvider(exp, resource.Empty(), 1)

	_, span := tp.Tracer(tracing.TracerName).Start(context.Background(), "stage")
	span.End()
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "stage", spans[0].Name)
	assert.NoError(t, tp.Shutdown(context.Background()))
}
