package catalog

import (
	"encoding/json"
	"time"

	"github.com/shopbot/catalog-service/internal/types"
)

// Snapshot is one fully built catalog index plus the per-shop supplier
// schedule tables. A snapshot is immutable after Build returns: the
// resolver swaps whole snapshots and never mutates one in place.
type Snapshot struct {
	// Products indexes the catalog by (article, shop).
	Products map[types.Key]types.Product
	// Schedules maps shop id -> supplier code -> schedule. A shop whose
	// schedule sheet failed to load is simply absent.
	Schedules map[string]map[string]types.SupplierSchedule

	BuiltAt             time.Time
	SkippedCatalogRows  int
	SkippedScheduleRows int
}

// Lookup returns the product for an exact (article, shop) key.
func (s *Snapshot) Lookup(article, shop string) (types.Product, bool) {
	p, ok := s.Products[types.Key{Article: article, Shop: shop}]
	return p, ok
}

// LookupAnyShop returns a product matching the article in any shop.
// When several shops stock it, the smallest shop id wins, so repeated
// lookups answer identically. Used only by the explicit any-shop
// fallback policy.
func (s *Snapshot) LookupAnyShop(article string) (types.Product, bool) {
	var best types.Product
	found := false
	for k, p := range s.Products {
		if k.Article != article {
			continue
		}
		if !found || k.Shop < best.Shop {
			best = p
			found = true
		}
	}
	return best, found
}

// ScheduleFor returns the supplier schedule for a product's supplier
// in the given shop.
func (s *Snapshot) ScheduleFor(shop, supplierCode string) (types.SupplierSchedule, bool) {
	table, ok := s.Schedules[shop]
	if !ok {
		return types.SupplierSchedule{}, false
	}
	sched, ok := table[supplierCode]
	return sched, ok
}

// snapshotBlob is the serialized form stored in the cache store.
// Products flatten to a slice because struct map keys do not survive
// JSON.
type snapshotBlob struct {
	Products            []types.Product                             `json:"products"`
	Schedules           map[string]map[string]types.SupplierSchedule `json:"schedules"`
	BuiltAt             time.Time                                   `json:"builtAt"`
	SkippedCatalogRows  int                                         `json:"skippedCatalogRows"`
	SkippedScheduleRows int                                         `json:"skippedScheduleRows"`
}

// Encode serializes the snapshot for the cache store.
func (s *Snapshot) Encode() ([]byte, error) {
	blob := snapshotBlob{
		Products:            make([]types.Product, 0, len(s.Products)),
		Schedules:           s.Schedules,
		BuiltAt:             s.BuiltAt,
		SkippedCatalogRows:  s.SkippedCatalogRows,
		SkippedScheduleRows: s.SkippedScheduleRows,
	}
	for _, p := range s.Products {
		blob.Products = append(blob.Products, p)
	}
	return json.Marshal(blob)
}

// DecodeSnapshot restores a snapshot serialized by Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var blob snapshotBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Products:            make(map[types.Key]types.Product, len(blob.Products)),
		Schedules:           blob.Schedules,
		BuiltAt:             blob.BuiltAt,
		SkippedCatalogRows:  blob.SkippedCatalogRows,
		SkippedScheduleRows: blob.SkippedScheduleRows,
	}
	if snap.Schedules == nil {
		snap.Schedules = make(map[string]map[string]types.SupplierSchedule)
	}
	for _, p := range blob.Products {
		snap.Products[types.Key{Article: p.Article, Shop: p.Shop}] = p
	}
	return snap, nil
}
