package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
//
// SECURITY WARNING: never attach token, code or secret values. Token ids are
// credentials in this domain; only their namespaces are safe to record.
const (
	AttrClientID  = "oauth.client_id"
	AttrSessionID = "oauth.session_id"
	AttrGrantType = "oauth.grant_type"

	AttrStorageOperation = "storage.operation"
	AttrStorageType      = "storage.type"
	AttrStorageNamespace = "storage.namespace"
	AttrCacheHit         = "storage.cache.hit"
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe)
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddStorageAttributes adds key-value operation attributes to a span (nil-safe)
func AddStorageAttributes(span trace.Span, operation, namespace string) {
	SetSpanAttributes(span,
		attribute.String(AttrStorageOperation, operation),
		attribute.String(AttrStorageNamespace, namespace),
	)
}

// AddSessionAttributes adds the session id to a span (nil-safe)
func AddSessionAttributes(span trace.Span, sessionID int64) {
	SetSpanAttributes(span, attribute.Int64(AttrSessionID, sessionID))
}

// AddCacheLookupEvent records a read-cache lookup as a span event (nil-safe)
func AddCacheLookupEvent(span trace.Span, namespace string, hit bool) {
	if span != nil {
		span.AddEvent("cache.lookup", trace.WithAttributes(
			attribute.String(AttrStorageNamespace, namespace),
			attribute.Bool(AttrCacheHit, hit),
		))
	}
}

// AddClientAttributes adds client lookup attributes to a span (nil-safe)
func AddClientAttributes(span trace.Span, clientID, grantType string) {
	if clientID != "" {
		SetSpanAttributes(span, attribute.String(AttrClientID, clientID))
	}
	if grantType != "" {
		SetSpanAttributes(span, attribute.String(AttrGrantType, grantType))
	}
}
