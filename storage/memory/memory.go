package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/giantswarm/oauth-kv/instrumentation"
	"github.com/giantswarm/oauth-kv/storage"
)

// backendName labels this backend in metrics
const backendName = "memory"

var (
	// ErrWrongType is returned when a command is used on a key holding the other type
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrNotInteger is returned by Incr when the key does not hold an integer
	ErrNotInteger = errors.New("value is not an integer or out of range")
)

func wrongType(command, key string) error {
	return fmt.Errorf("%s %s: %w", command, key, ErrWrongType)
}

// set is an insertion-ordered string set
type set struct {
	members []string
	index   map[string]int
}

func newSet() *set {
	return &set{index: make(map[string]int)}
}

func (s *set) add(member string) bool {
	if _, ok := s.index[member]; ok {
		return false
	}
	s.index[member] = len(s.members)
	s.members = append(s.members, member)
	return true
}

func (s *set) remove(member string) bool {
	i, ok := s.index[member]
	if !ok {
		return false
	}
	s.members = append(s.members[:i], s.members[i+1:]...)
	delete(s.index, member)
	for j := i; j < len(s.members); j++ {
		s.index[s.members[j]] = j
	}
	return true
}

// Store is an in-memory implementation of storage.KeyValue
type Store struct {
	mu sync.RWMutex

	strings map[string]string
	sets    map[string]*set

	// Key count kept outside the lock for the metrics callback
	keysCountAtomic atomic.Int64

	instrumentation *instrumentation.Instrumentation
	logger          *slog.Logger
}

// Compile-time interface check
var _ storage.KeyValue = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		strings: make(map[string]string),
		sets:    make(map[string]*set),
		logger:  slog.Default(),
	}
}

// SetLogger sets a custom logger
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
}

// SetInstrumentation registers a key count gauge for the store
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.mu.Lock()
	s.instrumentation = inst
	s.keysCountAtomic.Store(int64(len(s.strings) + len(s.sets)))
	logger := s.logger
	s.mu.Unlock()

	if inst == nil {
		return
	}
	if err := inst.RegisterKeyCountCallback(backendName, s.keysCountAtomic.Load); err != nil {
		logger.Warn("Failed to register key count callback", "error", err)
	}
}

// Len returns the number of keys held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.strings) + len(s.sets)
}

// Flush removes every key
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings = make(map[string]string)
	s.sets = make(map[string]*set)
	s.keysCountAtomic.Store(0)
}

// ============================================================
// String Commands
// ============================================================

// Get returns the string stored at key
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sets[key]; ok {
		return "", false, wrongType("get", key)
	}
	value, ok := s.strings[key]
	return value, ok, nil
}

// Set stores value at key, replacing a set if one was there
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[key]; ok {
		delete(s.sets, key)
		s.keysCountAtomic.Add(-1)
	}
	if _, ok := s.strings[key]; !ok {
		s.keysCountAtomic.Add(1)
	}
	s.strings[key] = value
	return nil
}

// Incr increments the integer at key, treating a missing key as 0
func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[key]; ok {
		return 0, wrongType("incr", key)
	}

	var current int64
	if raw, ok := s.strings[key]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %s: %w", key, ErrNotInteger)
		}
		current = n
	} else {
		s.keysCountAtomic.Add(1)
	}

	current++
	s.strings[key] = strconv.FormatInt(current, 10)
	return current, nil
}

// Del removes key whatever it holds and returns the number of keys removed
func (s *Store) Del(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.strings[key]; ok {
		delete(s.strings, key)
		s.keysCountAtomic.Add(-1)
		return 1, nil
	}
	if _, ok := s.sets[key]; ok {
		delete(s.sets, key)
		s.keysCountAtomic.Add(-1)
		return 1, nil
	}
	return 0, nil
}

// ============================================================
// Set Commands
// ============================================================

// SAdd adds member to the set at key and returns 1 if it was not already present
func (s *Store) SAdd(_ context.Context, key, member string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.strings[key]; ok {
		return 0, wrongType("sadd", key)
	}

	st, ok := s.sets[key]
	if !ok {
		st = newSet()
		s.sets[key] = st
		s.keysCountAtomic.Add(1)
	}
	if st.add(member) {
		return 1, nil
	}
	return 0, nil
}

// SRem removes member from the set at key and returns 1 if it was present.
// A set left empty is removed.
func (s *Store) SRem(_ context.Context, key, member string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.strings[key]; ok {
		return 0, wrongType("srem", key)
	}

	st, ok := s.sets[key]
	if !ok || !st.remove(member) {
		return 0, nil
	}
	if len(st.members) == 0 {
		delete(s.sets, key)
		s.keysCountAtomic.Add(-1)
	}
	return 1, nil
}

// SMembers returns the members of the set at key in insertion order
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.strings[key]; ok {
		return nil, wrongType("smembers", key)
	}

	st, ok := s.sets[key]
	if !ok {
		return []string{}, nil
	}
	return append([]string(nil), st.members...), nil
}
