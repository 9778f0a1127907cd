// Package tracing builds the OpenTelemetry tracer provider used for run,
// stage and unit spans.
//
// Tracing is off by default and Init then returns a no-op provider. When
// enabled, spans go to stderr through the stdout exporter or, with an
// endpoint configured, to an OTLP/HTTP collector. The provider is passed
// explicitly to the pipeline; the otel globals are left untouched.
package tracing
