// Package mock provides a scriptable storage.KeyValue for testing.
package mock

import (
	"context"
	"sync"

	"github.com/giantswarm/oauth-kv/storage"
	"github.com/giantswarm/oauth-kv/storage/memory"
)

// Command names used in CallCounts and the call log
const (
	CmdGet      = "GET"
	CmdSet      = "SET"
	CmdSAdd     = "SADD"
	CmdSRem     = "SREM"
	CmdSMembers = "SMEMBERS"
	CmdDel      = "DEL"
	CmdIncr     = "INCR"
)

// Call is one recorded command
type Call struct {
	Command string
	Key     string
	// Value is the value or member argument, empty for commands without one
	Value string
}

// MockKeyValue is a mock implementation of storage.KeyValue for testing.
// By default every command is served by an in-memory store; replace a Func
// field to inject failures or canned replies.
type MockKeyValue struct {
	mu    sync.Mutex
	calls []Call

	GetFunc      func(ctx context.Context, key string) (string, bool, error)
	SetFunc      func(ctx context.Context, key, value string) error
	SAddFunc     func(ctx context.Context, key, member string) (int64, error)
	SRemFunc     func(ctx context.Context, key, member string) (int64, error)
	SMembersFunc func(ctx context.Context, key string) ([]string, error)
	DelFunc      func(ctx context.Context, key string) (int64, error)
	IncrFunc     func(ctx context.Context, key string) (int64, error)

	CallCounts map[string]int

	// Backing is the store the default implementations use
	Backing *memory.Store
}

var _ storage.KeyValue = (*MockKeyValue)(nil)

// NewMockKeyValue creates a mock key-value store backed by memory
func NewMockKeyValue() *MockKeyValue {
	backing := memory.New()
	return &MockKeyValue{
		GetFunc:      backing.Get,
		SetFunc:      backing.Set,
		SAddFunc:     backing.SAdd,
		SRemFunc:     backing.SRem,
		SMembersFunc: backing.SMembers,
		DelFunc:      backing.Del,
		IncrFunc:     backing.Incr,
		CallCounts:   make(map[string]int),
		Backing:      backing,
	}
}

func (m *MockKeyValue) record(command, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCounts[command]++
	m.calls = append(m.calls, Call{Command: command, Key: key, Value: value})
}

func (m *MockKeyValue) Get(ctx context.Context, key string) (string, bool, error) {
	m.record(CmdGet, key, "")
	return m.GetFunc(ctx, key)
}

func (m *MockKeyValue) Set(ctx context.Context, key, value string) error {
	m.record(CmdSet, key, value)
	return m.SetFunc(ctx, key, value)
}

func (m *MockKeyValue) SAdd(ctx context.Context, key, member string) (int64, error) {
	m.record(CmdSAdd, key, member)
	return m.SAddFunc(ctx, key, member)
}

func (m *MockKeyValue) SRem(ctx context.Context, key, member string) (int64, error) {
	m.record(CmdSRem, key, member)
	return m.SRemFunc(ctx, key, member)
}

func (m *MockKeyValue) SMembers(ctx context.Context, key string) ([]string, error) {
	m.record(CmdSMembers, key, "")
	return m.SMembersFunc(ctx, key)
}

func (m *MockKeyValue) Del(ctx context.Context, key string) (int64, error) {
	m.record(CmdDel, key, "")
	return m.DelFunc(ctx, key)
}

func (m *MockKeyValue) Incr(ctx context.Context, key string) (int64, error) {
	m.record(CmdIncr, key, "")
	return m.IncrFunc(ctx, key)
}

// Calls returns a copy of the call log in order
func (m *MockKeyValue) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Keys returns the keys passed to command, in call order
func (m *MockKeyValue) Keys(command string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for _, c := range m.calls {
		if c.Command == command {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Count returns how many times command was called
func (m *MockKeyValue) Count(command string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCounts[command]
}

// ResetCallCounts clears call counters and the call log
func (m *MockKeyValue) ResetCallCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCounts = make(map[string]int)
	m.calls = nil
}
