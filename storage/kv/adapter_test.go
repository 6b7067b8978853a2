package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/giantswarm/oauth-kv/instrumentation"
	"github.com/giantswarm/oauth-kv/internal/testutil"
	"github.com/giantswarm/oauth-kv/storage/mock"
)

func newTestAdapter(t *testing.T) (*Adapter, *mock.MockKeyValue) {
	t.Helper()
	m := mock.NewMockKeyValue()
	return NewAdapter(m, testutil.DiscardLogger(), nil), m
}

func TestAdapter_GetCachesValue(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)
	require.NoError(t, m.Backing.Set(ctx, "oauth:clients:foo", `{"id":"foo","name":"Foo"}`))

	for i := 0; i < 2; i++ {
		v, found, err := a.Get(ctx, "foo", NamespaceClients)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, map[string]any{"id": "foo", "name": "Foo"}, v)
	}

	assert.Equal(t, []string{"oauth:clients:foo"}, m.Keys(mock.CmdGet))
}

func TestAdapter_GetMissingIsNotCached(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)

	for i := 0; i < 2; i++ {
		v, found, err := a.Get(ctx, "nope", NamespaceClients)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, v)
	}
	assert.Equal(t, 2, m.Count(mock.CmdGet))
}

func TestAdapter_GetRawValues(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)

	tests := []struct {
		stored string
		want   any
	}{
		{"not json", "not json"},
		{"42", "42"},
		{`"quoted"`, `"quoted"`},
		{`{broken`, `{broken`},
		{"", ""},
	}

	for _, tt := range tests {
		require.NoError(t, m.Backing.Set(ctx, "raw", tt.stored))
		v, found, err := a.Scoped().Get(ctx, "raw", "")
		require.NoError(t, err)
		assert.True(t, found, "stored %q", tt.stored)
		assert.Equal(t, tt.want, v, "stored %q", tt.stored)
	}
}

func TestAdapter_SetThenGetUsesCache(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)
	payload := map[string]any{"id": "read", "description": "Read"}

	require.NoError(t, a.Set(ctx, "read", NamespaceScopes, payload))

	v, found, err := a.Get(ctx, "read", NamespaceScopes)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload, v)
	assert.Equal(t, 0, m.Count(mock.CmdGet))

	raw, _, _ := m.Backing.Get(ctx, "oauth:scopes:read")
	assert.JSONEq(t, `{"id":"read","description":"Read"}`, raw)
}

func TestAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t)

	payload := map[string]any{
		"id":     "foo",
		"count":  float64(3),
		"active": true,
		"nested": map[string]any{"list": []any{"a", float64(1)}},
		"none":   nil,
	}
	require.NoError(t, a.Set(ctx, "foo", "round_trip", payload))

	// a scoped adapter has an empty cache, so this decodes what was written
	v, found, err := a.Scoped().Get(ctx, "foo", "round_trip")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload, v)
}

func TestAdapter_ReadSet(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)

	require.NoError(t, a.PushToSet(ctx, "tok", NamespaceAccessTokenScopes, scopeRef("read")))
	require.NoError(t, a.PushToSet(ctx, "tok", NamespaceAccessTokenScopes, scopeRef("write")))

	members, err := a.ReadSet(ctx, "tok", NamespaceAccessTokenScopes)
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"id": "read"},
		map[string]any{"id": "write"},
	}, members)

	// cached now; later pushes extend the cached list
	require.NoError(t, a.PushToSet(ctx, "tok", NamespaceAccessTokenScopes, scopeRef("admin")))
	members, err = a.ReadSet(ctx, "tok", NamespaceAccessTokenScopes)
	require.NoError(t, err)
	assert.Len(t, members, 3)
	assert.Equal(t, 1, m.Count(mock.CmdSMembers))
	assert.Equal(t, []string{
		"oauth:access:token:scopes:tok",
		"oauth:access:token:scopes:tok",
		"oauth:access:token:scopes:tok",
	}, m.Keys(mock.CmdSAdd))
}

func TestAdapter_ReadSetMissing(t *testing.T) {
	a, _ := newTestAdapter(t)

	members, err := a.ReadSet(context.Background(), "", NamespaceAccessTokens)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestAdapter_RemoveFromSetUpdatesCache(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)

	require.NoError(t, a.PushToSet(ctx, "", NamespaceAccessTokens, "a"))
	require.NoError(t, a.PushToSet(ctx, "", NamespaceAccessTokens, "b"))
	_, err := a.ReadSet(ctx, "", NamespaceAccessTokens)
	require.NoError(t, err)

	require.NoError(t, a.RemoveFromSet(ctx, "", NamespaceAccessTokens, "a"))

	members, err := a.ReadSet(ctx, "", NamespaceAccessTokens)
	require.NoError(t, err)
	assert.Equal(t, []any{"b"}, members)

	remote, _ := m.Backing.SMembers(ctx, "oauth:access:tokens")
	assert.Equal(t, []string{"b"}, remote)
}

func TestAdapter_DeleteKeyDropsCache(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)

	require.NoError(t, a.Set(ctx, "foo", NamespaceClients, map[string]any{"id": "foo"}))
	require.NoError(t, a.DeleteKey(ctx, "foo", NamespaceClients))

	_, found, err := a.Get(ctx, "foo", NamespaceClients)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, m.Count(mock.CmdGet))
	assert.Equal(t, []string{"oauth:clients:foo"}, m.Keys(mock.CmdDel))
}

func TestAdapter_FindInSet(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t)

	for _, uri := range []string{"https://a", "https://b"} {
		require.NoError(t, a.PushToSet(ctx, "foo", NamespaceClientEndpoints, map[string]any{"redirect_uri": uri}))
	}

	match := func(want string) func(any) (any, bool) {
		return func(member any) (any, bool) {
			rec, ok := asRecord(member)
			if !ok {
				return nil, false
			}
			uri := rec.str("redirect_uri")
			return uri, uri == want
		}
	}

	result, found, err := a.FindInSet(ctx, "foo", NamespaceClientEndpoints, match("https://b"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://b", result)

	result, found, err = a.FindInSet(ctx, "foo", NamespaceClientEndpoints, match("https://c"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, result)
}

func TestAdapter_Increment(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)

	first, err := a.Increment(ctx, NamespaceSessionIDs)
	require.NoError(t, err)
	second, err := a.Increment(ctx, NamespaceSessionIDs)
	require.NoError(t, err)

	assert.Greater(t, second, first)
	assert.Equal(t, []string{"oauth:session:ids", "oauth:session:ids"}, m.Keys(mock.CmdIncr))
}

func TestAdapter_ScopedStartsEmpty(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)

	require.NoError(t, a.Set(ctx, "foo", NamespaceClients, map[string]any{"id": "foo"}))
	scoped := a.Scoped()
	assert.Equal(t, 0, scoped.Cache().Len())
	assert.Equal(t, 1, a.Cache().Len())

	_, found, err := scoped.Get(ctx, "foo", NamespaceClients)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, m.Count(mock.CmdGet))
}

func TestAdapter_PropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(t)
	boom := errors.New("connection reset")

	m.GetFunc = func(context.Context, string) (string, bool, error) { return "", false, boom }
	m.SetFunc = func(context.Context, string, string) error { return boom }
	m.SMembersFunc = func(context.Context, string) ([]string, error) { return nil, boom }
	m.IncrFunc = func(context.Context, string) (int64, error) { return 0, boom }

	_, _, err := a.Get(ctx, "foo", NamespaceClients)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), NamespaceClients)

	assert.ErrorIs(t, a.Set(ctx, "foo", NamespaceClients, "x"), boom)

	_, err = a.ReadSet(ctx, "foo", NamespaceClientEndpoints)
	assert.ErrorIs(t, err, boom)

	_, err = a.Increment(ctx, NamespaceSessionIDs)
	assert.ErrorIs(t, err, boom)
}

func TestAdapter_Spans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	inst, err := instrumentation.New(instrumentation.Config{
		Enabled:        true,
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)),
	})
	require.NoError(t, err)

	a := NewAdapter(mock.NewMockKeyValue(), testutil.DiscardLogger(), inst)
	require.NoError(t, a.Set(ctx, "read", NamespaceScopes, map[string]any{"id": "read"}))
	_, _, err = a.Scoped().Get(ctx, "read", NamespaceScopes)
	require.NoError(t, err)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
		for _, attr := range span.Attributes() {
			if string(attr.Key) == instrumentation.AttrStorageNamespace {
				assert.Equal(t, NamespaceScopes, attr.Value.AsString())
			}
		}
	}
	assert.Equal(t, []string{"kv.set", "kv.get"}, names)
}

func TestSessionStore_Spans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	inst, err := instrumentation.New(instrumentation.Config{
		Enabled:        true,
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)),
	})
	require.NoError(t, err)

	sessions := NewSessionStore(NewAdapter(mock.NewMockKeyValue(), testutil.DiscardLogger(), inst), testutil.DiscardLogger(), nil)
	id, err := sessions.Create(ctx, "user", "alice", "foo", "")
	require.NoError(t, err)
	_, err = sessions.Get(ctx, id)
	require.NoError(t, err)

	spans := make(map[string]sdktrace.ReadOnlySpan)
	for _, span := range recorder.Ended() {
		spans[span.Name()] = span
	}

	for _, name := range []string{"kv.session.create", "kv.session.get"} {
		span, ok := spans[name]
		require.True(t, ok, "missing span %s", name)

		var sessionID int64
		for _, attr := range span.Attributes() {
			if string(attr.Key) == instrumentation.AttrSessionID {
				sessionID = attr.Value.AsInt64()
			}
		}
		assert.Equal(t, id, sessionID, name)
	}

	// Set cached the record, so the read is a cache hit without a kv.get span
	_, hasGet := spans["kv.get"]
	assert.False(t, hasGet)

	events := spans["kv.session.get"].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "cache.lookup", events[0].Name)
	for _, attr := range events[0].Attributes {
		if string(attr.Key) == instrumentation.AttrCacheHit {
			assert.True(t, attr.Value.AsBool())
		}
	}
}
