package metrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	meterName        = "github.com/KasumiMercury/primind-med-remind"
	serviceNamespace = "medremind"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// ProjectID is the GCP project receiving metrics; only the gcloud build
	// exports.
	ProjectID string
}

type Provider struct {
	mp *sdkmetric.MeterProvider
}

func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.mp
}

func (p *Provider) Meter() metric.Meter {
	return p.mp.Meter(meterName)
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}

func newResource(cfg Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.ServiceNamespace(serviceNamespace),
		semconv.DeploymentEnvironment(cfg.Environment),
	)
}

// newNoopProvider aggregates in process without any reader, so nothing is
// exported.
func newNoopProvider(cfg Config) *Provider {
	return &Provider{mp: sdkmetric.NewMeterProvider(sdkmetric.WithResource(newResource(cfg)))}
}
