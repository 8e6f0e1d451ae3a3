// Package telemetry provides OpenTelemetry metrics for graphmemd.
//
// Metrics are exported through the Prometheus bridge and served by the
// HTTP layer's /metrics endpoint. Telemetry failures never crash the
// service; a failed setup leaves the global no-op meter in place.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Config controls telemetry setup.
type Config struct {
	// ServiceName labels exported metrics (default: "graphmemd").
	ServiceName string

	// Enabled turns metric export on. When false the global meter stays
	// a no-op and instrument calls cost almost nothing.
	Enabled bool
}

// Telemetry owns the meter provider lifecycle.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
}

// New initializes the global meter provider with a Prometheus reader.
func New(_ context.Context, cfg Config) (*Telemetry, error) {
	t := &Telemetry{}
	if !cfg.Enabled {
		return t, nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "graphmemd"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create telemetry resource: %w", err)
	}

	// Registers on the default Prometheus registry, which promhttp serves.
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(t.meterProvider)

	return t, nil
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.meterProvider == nil {
		return nil
	}
	return t.meterProvider.Shutdown(ctx)
}
