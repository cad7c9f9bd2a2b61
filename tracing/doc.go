// Package tracing wraps OpenTelemetry so that workflow operations (submit,
// decide, clear, jobs) can be traced without importing the SDK directly.
// Spans are no-ops until Init or InitWithExporter installs a provider.
package tracing
