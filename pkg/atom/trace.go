package atom

import "go.opentelemetry.io/otel"

// defaultTracerName is the tracer name used when none is configured.
const defaultTracerName = "atomo"

// WithTracing enables OpenTelemetry spans for write-and-propagate passes
// ("atomo.write") and async settlements ("atomo.resolve"). The tracer comes
// from the global tracer provider; configure that provider in main() before
// creating the store.
func WithTracing(tracerName string) StoreOption {
	if tracerName == "" {
		tracerName = defaultTracerName
	}
	return func(s *Store) {
		s.tracer = otel.Tracer(tracerName)
	}
}
