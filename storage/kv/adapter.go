package kv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/oauth-kv/instrumentation"
	"github.com/giantswarm/oauth-kv/storage"
)

// Adapter provides namespaced access to a KeyValue store with JSON values, set
// operations and a read cache. It is scoped to one unit of work; see Scoped.
type Adapter struct {
	client storage.KeyValue
	cache  *Cache
	logger *slog.Logger

	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer
}

// NewAdapter creates an adapter with an empty cache.
// logger and inst are optional.
func NewAdapter(client storage.KeyValue, logger *slog.Logger, inst *instrumentation.Instrumentation) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		client:          client,
		cache:           NewCache(),
		logger:          logger,
		instrumentation: inst,
	}
	if inst != nil {
		a.tracer = inst.Tracer("storage")
	}
	return a
}

// Scoped returns an adapter sharing this adapter's client, logger and
// instrumentation but starting with an empty cache.
func (a *Adapter) Scoped() *Adapter {
	return &Adapter{
		client:          a.client,
		cache:           NewCache(),
		logger:          a.logger,
		instrumentation: a.instrumentation,
		tracer:          a.tracer,
	}
}

// Cache exposes the adapter's cache
func (a *Adapter) Cache() *Cache {
	return a.cache
}

// Get returns the value stored for id in namespace. JSON objects and arrays are
// decoded; other values are returned as the raw string. found is false when the
// key does not exist.
func (a *Adapter) Get(ctx context.Context, id, namespace string) (value any, found bool, err error) {
	key := Key(id, namespace)

	if v, ok := a.cache.value(key); ok {
		a.recordCacheLookup(ctx, namespace, true)
		return v, true, nil
	}
	a.recordCacheLookup(ctx, namespace, false)

	ctx, span, start := a.startOperation(ctx, "get", namespace)
	defer span.End()

	raw, found, err := a.client.Get(ctx, key)
	a.finishOperation(ctx, span, "get", err, start)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s value: %w", namespace, err)
	}
	if !found {
		return nil, false, nil
	}

	value = decodeValue(raw)
	a.cache.storeValue(key, value)
	return value, true, nil
}

// Set caches value and writes it to the store.
func (a *Adapter) Set(ctx context.Context, id, namespace string, value any) error {
	key := Key(id, namespace)

	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}

	a.cache.storeValue(key, value)

	ctx, span, start := a.startOperation(ctx, "set", namespace)
	defer span.End()

	err = a.client.Set(ctx, key, encoded)
	a.finishOperation(ctx, span, "set", err, start)
	if err != nil {
		return fmt.Errorf("failed to set %s value: %w", namespace, err)
	}
	return nil
}

// PushToSet adds value to the set stored for id in namespace.
func (a *Adapter) PushToSet(ctx context.Context, id, namespace string, value any) error {
	key := Key(id, namespace)

	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}

	a.cache.appendMember(key, value)

	ctx, span, start := a.startOperation(ctx, "sadd", namespace)
	defer span.End()

	_, err = a.client.SAdd(ctx, key, encoded)
	a.finishOperation(ctx, span, "sadd", err, start)
	if err != nil {
		return fmt.Errorf("failed to add to %s set: %w", namespace, err)
	}
	return nil
}

// ReadSet returns the members of the set stored for id in namespace, each decoded
// like Get. A missing set is empty. Order is whatever the store enumerates.
func (a *Adapter) ReadSet(ctx context.Context, id, namespace string) ([]any, error) {
	key := Key(id, namespace)

	if members, ok := a.cache.members(key); ok {
		a.recordCacheLookup(ctx, namespace, true)
		return members, nil
	}
	a.recordCacheLookup(ctx, namespace, false)

	ctx, span, start := a.startOperation(ctx, "smembers", namespace)
	defer span.End()

	raw, err := a.client.SMembers(ctx, key)
	a.finishOperation(ctx, span, "smembers", err, start)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s set: %w", namespace, err)
	}

	members := make([]any, 0, len(raw))
	for _, item := range raw {
		members = append(members, decodeValue(item))
	}

	a.cache.storeMembers(key, members)
	return members, nil
}

// RemoveFromSet removes value from the set stored for id in namespace.
func (a *Adapter) RemoveFromSet(ctx context.Context, id, namespace string, value any) error {
	key := Key(id, namespace)

	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}

	a.cache.removeMember(key, value)

	ctx, span, start := a.startOperation(ctx, "srem", namespace)
	defer span.End()

	_, err = a.client.SRem(ctx, key, encoded)
	a.finishOperation(ctx, span, "srem", err, start)
	if err != nil {
		return fmt.Errorf("failed to remove from %s set: %w", namespace, err)
	}
	return nil
}

// DeleteKey removes the key for id in namespace, whatever its type.
func (a *Adapter) DeleteKey(ctx context.Context, id, namespace string) error {
	key := Key(id, namespace)

	a.cache.drop(key)

	ctx, span, start := a.startOperation(ctx, "del", namespace)
	defer span.End()

	_, err := a.client.Del(ctx, key)
	a.finishOperation(ctx, span, "del", err, start)
	if err != nil {
		return fmt.Errorf("failed to delete %s key: %w", namespace, err)
	}
	return nil
}

// FindInSet applies match to each member of the set in enumeration order and
// returns the first result match accepts.
func (a *Adapter) FindInSet(ctx context.Context, id, namespace string, match func(member any) (any, bool)) (any, bool, error) {
	members, err := a.ReadSet(ctx, id, namespace)
	if err != nil {
		return nil, false, err
	}

	for _, member := range members {
		if result, ok := match(member); ok {
			return result, true, nil
		}
	}
	return nil, false, nil
}

// Increment atomically increments the counter for namespace and returns the new value.
func (a *Adapter) Increment(ctx context.Context, namespace string) (int64, error) {
	key := Key("", namespace)

	ctx, span, start := a.startOperation(ctx, "incr", namespace)
	defer span.End()

	n, err := a.client.Incr(ctx, key)
	a.finishOperation(ctx, span, "incr", err, start)
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", namespace, err)
	}
	return n, nil
}

// ============================================================
// Instrumentation Helpers
// ============================================================

// startOperation starts a span for one store command
// startSpan starts a "kv.<name>" span for a store-level operation
func (a *Adapter) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if a.tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return a.tracer.Start(ctx, "kv."+name)
}

func (a *Adapter) startOperation(ctx context.Context, operation, namespace string) (context.Context, trace.Span, time.Time) {
	start := time.Now()
	if a.tracer == nil {
		return ctx, trace.SpanFromContext(context.Background()), start
	}

	ctx, span := a.tracer.Start(ctx, "kv."+operation)
	instrumentation.AddStorageAttributes(span, operation, namespace)
	return ctx, span, start
}

// finishOperation records metrics for a store command and sets span status
func (a *Adapter) finishOperation(ctx context.Context, span trace.Span, operation string, err error, start time.Time) {
	if a.instrumentation == nil {
		return
	}

	durationMs := float64(time.Since(start).Microseconds()) / 1000
	result := instrumentation.ResultSuccess
	if err != nil {
		result = instrumentation.ResultError
		instrumentation.RecordError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	a.instrumentation.Metrics().RecordStorageOperation(ctx, operation, result, durationMs)
}

func (a *Adapter) recordCacheLookup(ctx context.Context, namespace string, hit bool) {
	instrumentation.AddCacheLookupEvent(trace.SpanFromContext(ctx), namespace, hit)
	if a.instrumentation == nil {
		return
	}
	a.instrumentation.Metrics().RecordCacheLookup(ctx, namespace, hit)
}
