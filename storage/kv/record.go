package kv

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/giantswarm/oauth-kv/storage"
)

// record is a stored entity payload after decoding
type record map[string]any

// asRecord returns v as a record when it has a mapping shape
func asRecord(v any) (record, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return record(m), true
}

// str returns field as a string. Numbers are formatted; anything else is empty.
func (r record) str(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// int64 returns field as an integer, accepting numeric strings
func (r record) int64(field string) int64 {
	switch v := r[field].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case int:
		return int64(v)
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// unixTime returns field, stored as unix seconds, as a time. Zero stays zero.
func (r record) unixTime(field string) time.Time {
	secs := r.int64(field)
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

func unixSeconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// getRecord loads the record for id in namespace. A missing key or a value
// without a mapping shape reports found=false.
func getRecord(ctx context.Context, a *Adapter, id, namespace string) (record, bool, error) {
	// an empty id would address the namespace's id set
	if id == "" {
		return nil, false, nil
	}
	v, found, err := a.Get(ctx, id, namespace)
	if err != nil || !found {
		return nil, false, err
	}
	rec, ok := asRecord(v)
	return rec, ok, nil
}

// scopeRef is the association-set member referencing a scope
func scopeRef(scopeID string) map[string]any {
	return map[string]any{"id": scopeID}
}

// resolveScopes reads an association set and loads each referenced scope in
// enumeration order. References to missing scopes are skipped.
func resolveScopes(ctx context.Context, a *Adapter, id, namespace string) ([]*storage.Scope, error) {
	if id == "" {
		return []*storage.Scope{}, nil
	}
	members, err := a.ReadSet(ctx, id, namespace)
	if err != nil {
		return nil, err
	}

	scopes := make([]*storage.Scope, 0, len(members))
	for _, member := range members {
		ref, ok := asRecord(member)
		if !ok {
			continue
		}
		scopeID := ref.str("id")
		if scopeID == "" {
			continue
		}

		rec, found, err := getRecord(ctx, a, scopeID, NamespaceScopes)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		scopes = append(scopes, scopeFromRecord(rec))
	}
	return scopes, nil
}

func scopeFromRecord(rec record) *storage.Scope {
	return &storage.Scope{
		ID:          rec.str("id"),
		Description: rec.str("description"),
	}
}
