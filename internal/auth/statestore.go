package auth

import (
	"sync"
	"time"
)

// DefaultStateTTL is the expiry window for cached verification state. It
// bounds how long a revocation at the identity provider can go unnoticed.
const DefaultStateTTL = 15 * time.Minute

type stateEntry struct {
	value     any
	expiresAt time.Time
}

// StateStore is a lock-protected expiring key-value store for short-lived
// verification state, such as cached introspection results. Entries are
// purged lazily on lookup and by a periodic sweep (StartSweep). The store is
// injected wherever it is needed rather than living as a package singleton,
// so tests can substitute their own.
type StateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]stateEntry

	sweepOnce sync.Once
	done      chan struct{}
}

// NewStateStore creates a store with the given TTL. A non-positive TTL uses
// DefaultStateTTL.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{
		ttl:     ttl,
		entries: make(map[string]stateEntry),
		done:    make(chan struct{}),
	}
}

// Put stores a value under key, resetting its expiry window.
func (s *StateStore) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = stateEntry{value: value, expiresAt: time.Now().Add(s.ttl)}
}

// Get returns the value for key if present and unexpired. Expired entries
// are removed on lookup.
func (s *StateStore) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Len returns the number of live (possibly expired but unswept) entries.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweep launches a background goroutine that purges expired entries at
// the given interval until Close is called. Safe to call at most once;
// subsequent calls are no-ops.
func (s *StateStore) StartSweep(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.sweep()
				case <-s.done:
					return
				}
			}
		}()
	})
}

// Close stops the sweep goroutine.
func (s *StateStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *StateStore) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}
