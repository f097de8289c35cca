package cache

import (
	"sync"
	"time"
)

type ttlEntry struct {
	blob      []byte
	setAt     time.Time
	expiresAt time.Time // zero means no expiry
}

// ttlStore expires entries by deadline and, when at capacity, evicts
// the entry with the oldest set-time.
type ttlStore struct {
	mu       sync.Mutex
	entries  map[string]ttlEntry
	capacity int
	clock    func() time.Time
}

func newTTLStore(capacity int) *ttlStore {
	return &ttlStore{
		entries:  make(map[string]ttlEntry, capacity),
		capacity: capacity,
		clock:    time.Now,
	}
}

func (s *ttlStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !s.clock().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.blob, true
}

func (s *ttlStore) Set(key string, blob []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	e := ttlEntry{blob: blob, setAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.capacity {
		s.evictLocked(now)
	}
	s.entries[key] = e
}

// evictLocked drops expired entries, then the oldest by set-time if
// the store is still full.
func (s *ttlStore) evictLocked(now time.Time) {
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	if len(s.entries) < s.capacity {
		return
	}

	var oldestKey string
	var oldestAt time.Time
	for k, e := range s.entries {
		if oldestKey == "" || e.setAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.setAt
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func (s *ttlStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *ttlStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]ttlEntry, s.capacity)
}

func (s *ttlStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
