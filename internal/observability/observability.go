package observability

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/KasumiMercury/primind-med-remind/internal/observability/logging"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/metrics"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/tracing"
)

type Config struct {
	ServiceInfo   logging.ServiceInfo
	Environment   string
	GCPProjectID  string
	SamplingRate  float64
	LogLevel      slog.Level
	DefaultModule logging.Module
}

type Resources struct {
	tracing *tracing.Provider
	metrics *metrics.Provider
}

// Init installs the default logger and the global tracer and meter
// providers.
func Init(ctx context.Context, cfg Config) (*Resources, error) {
	slog.SetDefault(slog.New(logging.NewHandler(os.Stdout, logging.HandlerConfig{
		Level:         cfg.LogLevel,
		Service:       cfg.ServiceInfo,
		DefaultModule: cfg.DefaultModule,
		GCPProjectID:  cfg.GCPProjectID,
	})))

	tp, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:    cfg.ServiceInfo.Name,
		ServiceVersion: cfg.ServiceInfo.Version,
		Environment:    cfg.Environment,
		ProjectID:      cfg.GCPProjectID,
		SamplingRate:   cfg.SamplingRate,
	})
	if err != nil {
		return nil, err
	}

	mp, err := metrics.NewProvider(ctx, metrics.Config{
		ServiceName:    cfg.ServiceInfo.Name,
		ServiceVersion: cfg.ServiceInfo.Version,
		Environment:    cfg.Environment,
		ProjectID:      cfg.GCPProjectID,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)

		return nil, err
	}

	otel.SetTracerProvider(tp.TracerProvider())
	otel.SetMeterProvider(mp.MeterProvider())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Resources{tracing: tp, metrics: mp}, nil
}

func (r *Resources) Metrics() *metrics.Provider {
	return r.metrics
}

func (r *Resources) Shutdown(ctx context.Context) error {
	return errors.Join(
		r.tracing.Shutdown(ctx),
		r.metrics.Shutdown(ctx),
	)
}
