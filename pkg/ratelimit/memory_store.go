package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/authcore/pkg/clock"
)

// MemoryStore implements an in-process sliding window store.
// Each key owns its own window and lock, so decisions for different keys
// never contend. State is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string]*slidingWindow

	clock           clock.Clock
	cleanupInterval time.Duration
	initialCapacity int
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

type slidingWindow struct {
	mu         sync.Mutex
	timestamps []time.Time // oldest first
	window     time.Duration
	evicted    bool
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often idle windows are evicted.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithInitialCapacity sets the initial capacity for window timestamps.
func WithInitialCapacity(capacity int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if capacity > 0 {
			s.initialCapacity = capacity
		}
	}
}

// WithStoreClock overrides the time source used by the cleanup loop.
func WithStoreClock(c clock.Clock) MemoryStoreOption {
	return func(s *MemoryStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewMemoryStore creates a new in-memory store with background eviction of idle windows.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		windows:         make(map[string]*slidingWindow),
		clock:           clock.Default,
		cleanupInterval: time.Minute,
		initialCapacity: 8,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// RecordTimestampIfAllowed prunes the window for key and records now n
// times if the remaining count leaves room.
func (s *MemoryStore) RecordTimestampIfAllowed(_ context.Context, key string, now time.Time, window time.Duration, limit int, n int) (bool, int64, error) {
	for {
		sw := s.lookup(key, true)

		sw.mu.Lock()
		if sw.evicted {
			// lost a race with cleanup; the key has a fresh window now
			sw.mu.Unlock()
			continue
		}

		sw.window = window
		sw.prune(now)

		if len(sw.timestamps)+n > limit {
			count := int64(len(sw.timestamps))
			sw.mu.Unlock()
			return false, count, nil
		}

		for range n {
			sw.timestamps = append(sw.timestamps, now)
		}
		count := int64(len(sw.timestamps))
		sw.mu.Unlock()

		return true, count, nil
	}
}

// CountInWindow returns the number of timestamps within window of now.
func (s *MemoryStore) CountInWindow(_ context.Context, key string, now time.Time, window time.Duration) (int64, error) {
	sw := s.lookup(key, false)
	if sw == nil {
		return 0, nil
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.window = window
	sw.prune(now)

	return int64(len(sw.timestamps)), nil
}

// Delete removes the window for key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sw, ok := s.windows[key]; ok {
		sw.mu.Lock()
		sw.evicted = true
		sw.mu.Unlock()
		delete(s.windows, key)
	}
	return nil
}

// Len returns the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

func (s *MemoryStore) lookup(key string, create bool) *slidingWindow {
	s.mu.RLock()
	sw, ok := s.windows[key]
	s.mu.RUnlock()
	if ok || !create {
		return sw
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sw, ok = s.windows[key]; !ok {
		sw = &slidingWindow{timestamps: make([]time.Time, 0, s.initialCapacity)}
		s.windows[key] = sw
	}
	return sw
}

// prune trims the prefix of timestamps older than the window.
// Caller must hold sw.mu.
func (sw *slidingWindow) prune(now time.Time) {
	i := 0
	for i < len(sw.timestamps) && now.Sub(sw.timestamps[i]) > sw.window {
		i++
	}
	if i > 0 {
		sw.timestamps = append(sw.timestamps[:0], sw.timestamps[i:]...)
	}
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup evicts windows with no timestamps left inside their window.
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	for key, sw := range s.windows {
		sw.mu.Lock()
		sw.prune(now)
		if len(sw.timestamps) == 0 {
			sw.evicted = true
			delete(s.windows, key)
		}
		sw.mu.Unlock()
	}
}
