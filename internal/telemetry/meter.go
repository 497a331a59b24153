package telemetry

import (
	"context"
	"fmt"
	"time"

	"docqa-platform/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// InitMeter installs an OTLP-backed meter provider. When endpoint is empty
// the global provider stays no-op and instruments record nothing, which
// keeps local development free of a collector requirement.
func InitMeter(serviceName, endpoint string) (func(), error) {
	if endpoint == "" {
		logger.Info("metrics export disabled, no OTLP endpoint configured")
		return func() {}, nil
	}

	ctx := context.Background()

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", "service", serviceName, "endpoint", endpoint)

	return func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Error("meter shutdown failed", "error", err)
		}
	}, nil
}
