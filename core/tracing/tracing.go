package tracing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TracerName is the instrumentation scope of every span in this module.
const TracerName = "asset-exporter"

// Config holds tracing settings.
type Config struct {
	Enabled     bool    `mapstructure:"enabled" default:"false"`
	Endpoint    string  `mapstructure:"endpoint" default:""`
	Insecure    bool    `mapstructure:"insecure" default:"false"`
	Pretty      bool    `mapstructure:"pretty" default:"false"`
	SampleRatio float64 `mapstructure:"sample_ratio" default:"1"`
	ServiceName string  `mapstructure:"service_name" default:"asset-exporter"`
}

// Shutdown flushes and stops a provider.
type Shutdown func(context.Context) error

// Init builds a tracer provider for cfg.
func Init(ctx context.Context, cfg Config, log *zap.Logger) (trace.TracerProvider, Shutdown, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	exporter, err := buildExporter(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = TracerName
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(name))

	tp := NewProvider(exporter, res, cfg.SampleRatio)
	log.Info("Tracing initialized",
		zap.String("service", name),
		zap.String("endpoint", cfg.Endpoint),
	)
	return tp, tp.Shutdown, nil
}

// NewProvider creates a batching provider around exporter. Ratios outside
// (0, 1] sample every span.
func NewProvider(exporter sdktrace.SpanExporter, res *resource.Resource, ratio float64) *sdktrace.TracerProvider {
	sampler := sdktrace.AlwaysSample()
	if ratio > 0 && ratio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
	)
}

func buildExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(os.Stderr)}
	if cfg.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	return stdouttrace.New(opts...)
}
