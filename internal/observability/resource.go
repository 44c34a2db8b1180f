package observability

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultServiceName = "calculator-api"

var (
	serviceNameMu sync.RWMutex
	serviceName   string
)

// SetServiceName overrides the service name reported on traces, metrics and
// logs. An empty name falls back to OTEL_SERVICE_NAME.
func SetServiceName(name string) {
	serviceNameMu.Lock()
	defer serviceNameMu.Unlock()
	serviceName = name
}

func ServiceName() string {
	serviceNameMu.RLock()
	name := serviceName
	serviceNameMu.RUnlock()

	if name != "" {
		return name
	}
	if name = os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return defaultServiceName
}

func newResource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName()),
		),
	)
}
