package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Result values used for the "result" attribute of storage metrics
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds all metric instruments for the storage layer
type Metrics struct {
	StorageOperationTotal    metric.Int64Counter
	StorageOperationDuration metric.Float64Histogram
	StorageCacheLookups      metric.Int64Counter
	StorageKeysCount         metric.Int64ObservableGauge

	ClientValidationFailed metric.Int64Counter
}

// newMetrics creates and registers all metric instruments
func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	m.StorageOperationTotal, err = meter.Int64Counter(
		"storage.operation.total",
		metric.WithDescription("Total number of key-value operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.operation.total counter: %w", err)
	}

	m.StorageOperationDuration, err = meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Key-value operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.operation.duration histogram: %w", err)
	}

	m.StorageCacheLookups, err = meter.Int64Counter(
		"storage.cache.lookups",
		metric.WithDescription("Request-scoped read cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.cache.lookups counter: %w", err)
	}

	m.StorageKeysCount, err = meter.Int64ObservableGauge(
		"storage.keys.count",
		metric.WithDescription("Number of keys held by an in-process backend"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.keys.count gauge: %w", err)
	}

	m.ClientValidationFailed, err = meter.Int64Counter(
		"oauth.client.validation.failed",
		metric.WithDescription("Client lookups rejected by credential, redirect URI or grant checks"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth.client.validation.failed counter: %w", err)
	}

	return m, nil
}

// RecordStorageOperation records a key-value operation
func (m *Metrics) RecordStorageOperation(ctx context.Context, operation, result string, durationMs float64) {
	m.StorageOperationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
	m.StorageOperationDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordCacheLookup records a read-cache lookup for a namespace
func (m *Metrics) RecordCacheLookup(ctx context.Context, namespace string, hit bool) {
	m.StorageCacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStorageNamespace, namespace),
		attribute.Bool("hit", hit),
	))
}

// RecordClientValidationFailed records a rejected client lookup
func (m *Metrics) RecordClientValidationFailed(ctx context.Context, reason string) {
	m.ClientValidationFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func backendAttr(backend string) attribute.KeyValue {
	return attribute.String(AttrStorageType, backend)
}
