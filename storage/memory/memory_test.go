package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/giantswarm/oauth-kv/instrumentation"
)

// ============================================================
// String Command Tests
// ============================================================

func TestStore_GetMissing(t *testing.T) {
	store := New()

	value, found, err := store.Get(context.Background(), "oauth:clients:missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Errorf("Get() found = true for missing key, value %q", value)
	}
}

func TestStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.Set(ctx, "k", `{"id":"foo"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != `{"id":"foo"}` {
		t.Errorf("Get() = %q, %v; want stored value", value, found)
	}

	if err := store.Set(ctx, "k", "bar"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	value, _, _ = store.Get(ctx, "k")
	if value != "bar" {
		t.Errorf("Get() after overwrite = %q, want %q", value, "bar")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestStore_EmptyStringIsFound(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.Set(ctx, "empty", ""); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_, found, err := store.Get(ctx, "empty")
	if err != nil || !found {
		t.Errorf("Get() = found %v, err %v; want found", found, err)
	}
}

func TestStore_Incr(t *testing.T) {
	ctx := context.Background()
	store := New()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Incr(ctx, "oauth:session:ids")
		if err != nil {
			t.Fatalf("Incr() error = %v", err)
		}
		if got != want {
			t.Errorf("Incr() = %d, want %d", got, want)
		}
	}

	value, _, _ := store.Get(ctx, "oauth:session:ids")
	if value != "3" {
		t.Errorf("counter value = %q, want %q", value, "3")
	}
}

func TestStore_IncrNotInteger(t *testing.T) {
	ctx := context.Background()
	store := New()

	_ = store.Set(ctx, "k", "abc")
	if _, err := store.Incr(ctx, "k"); !errors.Is(err, ErrNotInteger) {
		t.Errorf("Incr() error = %v, want ErrNotInteger", err)
	}
}

func TestStore_IncrConcurrent(t *testing.T) {
	ctx := context.Background()
	store := New()

	const workers = 20
	const perWorker = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n, err := store.Incr(ctx, "counter")
				if err != nil {
					t.Errorf("Incr() error = %v", err)
					return
				}
				mu.Lock()
				if seen[n] {
					t.Errorf("Incr() returned %d twice", n)
				}
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("distinct values = %d, want %d", len(seen), workers*perWorker)
	}
}

func TestStore_Del(t *testing.T) {
	ctx := context.Background()
	store := New()

	_ = store.Set(ctx, "str", "v")
	_, _ = store.SAdd(ctx, "set", "m")

	tests := []struct {
		key  string
		want int64
	}{
		{"str", 1},
		{"set", 1},
		{"str", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		got, err := store.Del(ctx, tt.key)
		if err != nil {
			t.Fatalf("Del(%q) error = %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("Del(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

// ============================================================
// Set Command Tests
// ============================================================

func TestStore_SAddSRem(t *testing.T) {
	ctx := context.Background()
	store := New()
	key := "oauth:access:tokens"

	if n, _ := store.SAdd(ctx, key, "a"); n != 1 {
		t.Errorf("SAdd(new) = %d, want 1", n)
	}
	if n, _ := store.SAdd(ctx, key, "a"); n != 0 {
		t.Errorf("SAdd(duplicate) = %d, want 0", n)
	}
	_, _ = store.SAdd(ctx, key, "b")
	_, _ = store.SAdd(ctx, key, "c")

	members, err := store.SMembers(ctx, key)
	if err != nil {
		t.Fatalf("SMembers() error = %v", err)
	}
	if fmt.Sprint(members) != "[a b c]" {
		t.Errorf("SMembers() = %v, want [a b c]", members)
	}

	if n, _ := store.SRem(ctx, key, "b"); n != 1 {
		t.Errorf("SRem(present) = %d, want 1", n)
	}
	if n, _ := store.SRem(ctx, key, "b"); n != 0 {
		t.Errorf("SRem(absent) = %d, want 0", n)
	}

	members, _ = store.SMembers(ctx, key)
	if fmt.Sprint(members) != "[a c]" {
		t.Errorf("SMembers() after SRem = %v, want [a c]", members)
	}

	// index must stay consistent after a middle removal
	if n, _ := store.SRem(ctx, key, "c"); n != 1 {
		t.Errorf("SRem(c) = %d, want 1", n)
	}
	_, _ = store.SRem(ctx, key, "a")
	if store.Len() != 0 {
		t.Errorf("empty set should be removed, Len() = %d", store.Len())
	}
}

func TestStore_SMembersMissing(t *testing.T) {
	members, err := New().SMembers(context.Background(), "missing")
	if err != nil {
		t.Fatalf("SMembers() error = %v", err)
	}
	if members == nil || len(members) != 0 {
		t.Errorf("SMembers() = %#v, want empty non-nil slice", members)
	}
}

func TestStore_SMembersReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, _ = store.SAdd(ctx, "k", "a")

	members, _ := store.SMembers(ctx, "k")
	members[0] = "mutated"

	again, _ := store.SMembers(ctx, "k")
	if again[0] != "a" {
		t.Errorf("SMembers() exposed internal slice: %v", again)
	}
}

func TestStore_WrongType(t *testing.T) {
	ctx := context.Background()
	store := New()
	_ = store.Set(ctx, "str", "v")
	_, _ = store.SAdd(ctx, "set", "m")

	if _, err := store.SAdd(ctx, "str", "m"); !errors.Is(err, ErrWrongType) {
		t.Errorf("SAdd on string key error = %v, want ErrWrongType", err)
	}
	if _, err := store.SRem(ctx, "str", "m"); !errors.Is(err, ErrWrongType) {
		t.Errorf("SRem on string key error = %v, want ErrWrongType", err)
	}
	if _, err := store.SMembers(ctx, "str"); !errors.Is(err, ErrWrongType) {
		t.Errorf("SMembers on string key error = %v, want ErrWrongType", err)
	}
	if _, _, err := store.Get(ctx, "set"); !errors.Is(err, ErrWrongType) {
		t.Errorf("Get on set key error = %v, want ErrWrongType", err)
	}
	if _, err := store.Incr(ctx, "set"); !errors.Is(err, ErrWrongType) {
		t.Errorf("Incr on set key error = %v, want ErrWrongType", err)
	}

	_, err := store.SAdd(ctx, "str", "m")
	if err == nil || !strings.Contains(err.Error(), "sadd str") {
		t.Errorf("SAdd error = %v, want command and key in message", err)
	}
	if _, _, err := store.Get(ctx, "set"); err == nil || !strings.Contains(err.Error(), "get set") {
		t.Errorf("Get error = %v, want command and key in message", err)
	}

	// Set replaces a set, as SET does on a server
	if err := store.Set(ctx, "set", "v"); err != nil {
		t.Fatalf("Set over set key error = %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}

func TestStore_Flush(t *testing.T) {
	ctx := context.Background()
	store := New()
	_ = store.Set(ctx, "a", "1")
	_, _ = store.SAdd(ctx, "b", "1")

	store.Flush()
	if store.Len() != 0 {
		t.Errorf("Len() after Flush = %d, want 0", store.Len())
	}
}

// ============================================================
// Instrumentation Tests
// ============================================================

func TestStore_SetInstrumentation_KeyCount(t *testing.T) {
	ctx := context.Background()
	reader := metric.NewManualReader()
	inst, err := instrumentation.New(instrumentation.Config{
		Enabled:       true,
		MeterProvider: metric.NewMeterProvider(metric.WithReader(reader)),
	})
	if err != nil {
		t.Fatalf("instrumentation.New() error = %v", err)
	}

	store := New()
	_ = store.Set(ctx, "a", "1")
	store.SetInstrumentation(inst)
	_, _ = store.SAdd(ctx, "b", "x")
	_, _ = store.Incr(ctx, "c")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var got int64 = -1
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "storage.keys.count" {
				continue
			}
			gauge, ok := m.Data.(metricdata.Gauge[int64])
			if !ok || len(gauge.DataPoints) == 0 {
				t.Fatalf("storage.keys.count has unexpected data %T", m.Data)
			}
			got = gauge.DataPoints[0].Value
		}
	}
	if got != 3 {
		t.Errorf("storage.keys.count = %d, want 3", got)
	}
}
