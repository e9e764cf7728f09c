package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records dispatch loop telemetry through an OpenTelemetry
// meter backed by the Prometheus exporter.
type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	attemptCounter  otelmetric.Int64Counter
	cycleDuration   otelmetric.Float64Histogram
	cycleBatchGauge otelmetric.Int64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	attemptCounter, _ := meter.Int64Counter(
		"dispatch.attempts",
		otelmetric.WithDescription("Number of delivery attempts processed"),
	)

	cycleDuration, _ := meter.Float64Histogram(
		"dispatch.cycle.duration",
		otelmetric.WithDescription("Dispatch cycle duration"),
		otelmetric.WithUnit("ms"),
	)

	cycleBatch, _ := meter.Int64Histogram(
		"dispatch.cycle.batch",
		otelmetric.WithDescription("Records processed per dispatch cycle"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		attemptCounter:  attemptCounter,
		cycleDuration:   cycleDuration,
		cycleBatchGauge: cycleBatch,
	}
}

// RecordAttempt counts one delivery attempt with its terminal status.
func (o *Observability) RecordAttempt(ctx context.Context, status string) {
	if o.attemptCounter != nil {
		o.attemptCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordCycle records the duration and batch size of one dispatch cycle.
func (o *Observability) RecordCycle(ctx context.Context, duration time.Duration, processed int) {
	if o.cycleDuration != nil {
		o.cycleDuration.Record(ctx, float64(duration.Milliseconds()))
	}
	if o.cycleBatchGauge != nil {
		o.cycleBatchGauge.Record(ctx, int64(processed))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
