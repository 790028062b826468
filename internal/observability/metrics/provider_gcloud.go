//go:build gcloud

package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const exportInterval = time.Minute

// NewProvider exports to Cloud Monitoring unless OTEL_EXPORTER_DISABLED=true.
func NewProvider(_ context.Context, cfg Config) (*Provider, error) {
	if os.Getenv("OTEL_EXPORTER_DISABLED") == "true" {
		return newNoopProvider(cfg), nil
	}

	if cfg.ProjectID == "" {
		return nil, errors.New("metrics: project id is required for Cloud Monitoring")
	}

	exporter, err := mexporter.New(mexporter.WithProjectID(cfg.ProjectID))
	if err != nil {
		return nil, fmt.Errorf("metrics: failed to create Cloud Monitoring exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
		sdkmetric.WithResource(newResource(cfg)),
	)

	return &Provider{mp: mp}, nil
}
