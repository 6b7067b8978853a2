package security

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultLimiterMaxEntries bounds the number of client ids tracked at once
	DefaultLimiterMaxEntries = 10000

	// limiterCleanupInterval is how often idle client buckets are dropped
	limiterCleanupInterval = 5 * time.Minute

	// limiterMaxIdle is how long a bucket may sit unused before cleanup drops it
	limiterMaxIdle = 30 * time.Minute
)

type limiterEntry struct {
	clientID   string
	limiter    *rate.Limiter
	lastAccess time.Time
}

// CredentialLimiter limits how often each client id may have its credentials checked.
// Buckets are kept in LRU order so memory stays bounded.
type CredentialLimiter struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	lru        *list.List
	rate       rate.Limit
	burst      int
	maxEntries int
	logger     *slog.Logger

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewCredentialLimiter creates a limiter allowing perSecond checks per client id with
// the given burst. maxEntries <= 0 uses DefaultLimiterMaxEntries.
// Call Stop to end the background cleanup.
func NewCredentialLimiter(perSecond float64, burst, maxEntries int, logger *slog.Logger) *CredentialLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxEntries <= 0 {
		maxEntries = DefaultLimiterMaxEntries
	}

	cl := &CredentialLimiter{
		entries:     make(map[string]*list.Element),
		lru:         list.New(),
		rate:        rate.Limit(perSecond),
		burst:       burst,
		maxEntries:  maxEntries,
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	go cl.cleanupLoop()

	return cl
}

// Allow consumes one credential check for clientID and reports whether it is permitted.
func (cl *CredentialLimiter) Allow(clientID string) bool {
	now := time.Now()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if elem, ok := cl.entries[clientID]; ok {
		cl.lru.MoveToFront(elem)
		entry := elem.Value.(*limiterEntry)
		entry.lastAccess = now
		return entry.limiter.AllowN(now, 1)
	}

	if len(cl.entries) >= cl.maxEntries {
		cl.evictOldest()
	}

	entry := &limiterEntry{
		clientID:   clientID,
		limiter:    rate.NewLimiter(cl.rate, cl.burst),
		lastAccess: now,
	}
	cl.entries[clientID] = cl.lru.PushFront(entry)

	return entry.limiter.AllowN(now, 1)
}

// Len returns the number of client ids currently tracked
func (cl *CredentialLimiter) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.entries)
}

// evictOldest must be called with mu held
func (cl *CredentialLimiter) evictOldest() {
	elem := cl.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*limiterEntry)
	delete(cl.entries, entry.clientID)
	cl.lru.Remove(elem)

	cl.logger.Debug("Credential limiter evicted client", "client_id", entry.clientID)
}

func (cl *CredentialLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cl.Cleanup(limiterMaxIdle)
		case <-cl.stopCleanup:
			return
		}
	}
}

// Cleanup drops buckets that have not been used for maxIdle.
func (cl *CredentialLimiter) Cleanup(maxIdle time.Duration) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	removed := 0

	// The list is ordered most recent first, so idle entries sit at the back.
	for elem := cl.lru.Back(); elem != nil; {
		entry := elem.Value.(*limiterEntry)
		if now.Sub(entry.lastAccess) <= maxIdle {
			break
		}
		prev := elem.Prev()
		delete(cl.entries, entry.clientID)
		cl.lru.Remove(elem)
		removed++
		elem = prev
	}

	if removed > 0 {
		cl.logger.Debug("Credential limiter cleanup completed",
			"removed", removed,
			"remaining", len(cl.entries))
	}
}

// Stop ends the background cleanup goroutine. It is safe to call more than once.
func (cl *CredentialLimiter) Stop() {
	cl.stopOnce.Do(func() { close(cl.stopCleanup) })
}
