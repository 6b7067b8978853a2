// Package instrumentation provides OpenTelemetry instrumentation for the oauth-kv
// storage layer.
//
// Every key-value command issued by the storage adapter runs inside a span named
// "kv.<operation>" and is counted in the storage metrics. Read-cache lookups are
// counted separately so the effect of the request-scoped cache can be observed.
//
// # Quick Start
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "my-oauth-service",
//		ServiceVersion: "1.0.0",
//		Enabled:        true,
//		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	backend, err := kv.New(client, kv.Config{Instrumentation: inst})
//
// Providers passed in Config belong to the Instrumentation and are shut down by
// Shutdown. When Enabled is true and no providers are configured, the global
// providers registered with go.opentelemetry.io/otel are used and Shutdown leaves
// them alone. When Enabled is false, no-op
// providers are installed and instrumentation has no overhead.
//
// # Available Metrics
//
//   - storage.operation.total: key-value commands by operation and result
//   - storage.operation.duration: key-value command latency in milliseconds
//   - storage.cache.lookups: read-cache lookups by hit/miss
//   - storage.keys.count: number of keys held by in-process backends
//   - oauth.client.validation.failed: rejected client lookups by reason
//
// # Security
//
// Never record token, code or secret values as span attributes. Only identifiers
// that are not credentials (client ids, session ids, namespaces) are attached.
package instrumentation
