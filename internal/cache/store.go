// Package cache provides a bounded, process-local key→blob store.
//
// Values are opaque serialized blobs; callers deserialize, read, and
// discard. Two eviction strategies are available: oldest-entry-first
// with TTL expiry, and least-recently-used. Both are safe for
// concurrent use.
package cache

import (
	"fmt"
	"time"
)

// Policy selects the eviction strategy for a Store.
type Policy string

const (
	PolicyTTL Policy = "ttl"
	PolicyLRU Policy = "lru"
)

// Store is a bounded key→blob map. A zero ttl on Set means the entry
// never expires (it can still be evicted for capacity).
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, blob []byte, ttl time.Duration)
	Delete(key string)
	Clear()
	Len() int
}

// New builds a Store with the given policy and entry capacity.
func New(policy Policy, capacity int) (Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	switch policy {
	case PolicyTTL:
		return newTTLStore(capacity), nil
	case PolicyLRU:
		return newLRUStore(capacity)
	default:
		return nil, fmt.Errorf("unknown cache policy %q", policy)
	}
}

// Namespaced cache keys shared by the source and resolver layers. Row
// lists and the encoded snapshot live in separate namespaces so the two
// never overwrite each other on a shared store.
const (
	KeyCatalog     = "catalog"
	KeyCatalogRows = "rows:catalog"
	KeyUserRows    = "rows:users"
)

// ScheduleRowsKey returns the cache key for a shop's schedule rows.
func ScheduleRowsKey(shopID string) string {
	return "rows:schedule:" + shopID
}

// UserKey returns the cache key for one user directory record.
func UserKey(userID string) string {
	return "user:" + userID
}
