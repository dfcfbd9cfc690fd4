package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a named tracer from the global provider. Without an SDK
// installed the provider is a no-op.
func Tracer(name string) trace.Tracer {
	return otel.Tracer("github.com/FelipeFraul/buscai-v2-sub000/" + name)
}
