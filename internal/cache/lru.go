package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type lruEntry struct {
	blob      []byte
	expiresAt time.Time // zero means no expiry
}

// lruStore evicts least-recently-used entries at capacity. Per-entry
// TTLs are checked lazily on Get.
type lruStore struct {
	inner *lru.Cache[string, lruEntry]
	clock func() time.Time
}

func newLRUStore(capacity int) (*lruStore, error) {
	inner, err := lru.New[string, lruEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &lruStore{inner: inner, clock: time.Now}, nil
}

func (s *lruStore) Get(key string) ([]byte, bool) {
	e, ok := s.inner.Get(key)
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !s.clock().Before(e.expiresAt) {
		s.inner.Remove(key)
		return nil, false
	}
	return e.blob, true
}

func (s *lruStore) Set(key string, blob []byte, ttl time.Duration) {
	e := lruEntry{blob: blob}
	if ttl > 0 {
		e.expiresAt = s.clock().Add(ttl)
	}
	s.inner.Add(key, e)
}

func (s *lruStore) Delete(key string) {
	s.inner.Remove(key)
}

func (s *lruStore) Clear() {
	s.inner.Purge()
}

func (s *lruStore) Len() int {
	return s.inner.Len()
}
