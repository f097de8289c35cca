package types

import (
	"errors"
	"fmt"
	"time"
)

// Row is a flat record as returned by a backing store. Keys are the
// canonical field names below; values are untrimmed strings.
type Row map[string]string

// Canonical catalog row fields
const (
	FieldArticle      = "article"
	FieldShop         = "shop"
	FieldName         = "name"
	FieldDepartment   = "department"
	FieldSupplierCode = "supplier_code"
	FieldSupplierName = "supplier_name"
	FieldTier         = "tier"
)

// Canonical schedule row fields
const (
	FieldOrderDay1 = "order_day_1"
	FieldOrderDay2 = "order_day_2"
	FieldOrderDay3 = "order_day_3"
	FieldLeadDays  = "lead_days"
)

// Canonical user directory fields
const (
	FieldUserID   = "user_id"
	FieldSurname  = "surname"
	FieldPosition = "position"
)

// Tier classifies an (article, shop) pair within the assortment.
type Tier string

const (
	TierTop     Tier = "top"
	TierLowest  Tier = "lowest"
	TierUnknown Tier = "unknown"
)

// Key is the natural identity of a product: article codes repeat
// across shops, so the article alone is never unique.
type Key struct {
	Article string `json:"article"`
	Shop    string `json:"shop"`
}

func (k Key) String() string {
	return k.Article + "@" + k.Shop
}

// Product is one catalog entry. Article codes are opaque text; leading
// zeros are significant and must never be parsed as numbers.
type Product struct {
	Article      string `json:"article"`
	Shop         string `json:"shop"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	SupplierCode string `json:"supplierCode"`
	SupplierName string `json:"supplierName,omitempty"`
	Tier         Tier   `json:"tier"`
}

// SupplierSchedule holds a supplier's weekly order days and lead time
// for one shop. OrderWeekdays is sorted, deduplicated ISO weekdays
// (1=Monday..7=Sunday) and is non-empty for any stored schedule.
type SupplierSchedule struct {
	SupplierCode  string `json:"supplierCode"`
	SupplierName  string `json:"supplierName"`
	OrderWeekdays []int  `json:"orderWeekdays"`
	LeadDays      int    `json:"leadDays"`
}

// SupplierStatus marks how supplier data was resolved for a product.
type SupplierStatus string

const (
	// SupplierStatusOK means a schedule was found and dates computed.
	SupplierStatusOK SupplierStatus = "ok"
	// SupplierStatusNone means the product has no supplier schedule;
	// it is treated as a central-distribution item, not an error.
	SupplierStatusNone SupplierStatus = "none"
)

// ResolutionResult is the assembled answer for one resolve call.
// It is transient and never persisted.
type ResolutionResult struct {
	Article      string         `json:"article"`
	Shop         string         `json:"shop"`
	Name         string         `json:"name"`
	Department   string         `json:"department"`
	SupplierCode string         `json:"supplierCode,omitempty"`
	SupplierName string         `json:"supplierName,omitempty"`
	Supplier     SupplierStatus `json:"supplierStatus"`
	OrderDate    *time.Time     `json:"orderDate,omitempty"`
	DeliveryDate *time.Time     `json:"deliveryDate,omitempty"`
	// NeedsReview is set when the product sits in the lowest
	// assortment tier and ordering needs manager approval.
	NeedsReview bool `json:"needsReview"`
	// FromShop names the shop the product was actually found in when
	// the any-shop fallback substituted another shop's entry.
	FromShop string `json:"fromShop,omitempty"`
}

// User is one employee record from the user directory.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Position string `json:"position"`
	Shop     string `json:"shop"`
}

// ErrNotFound reports that no product exists for the requested key.
// It is an expected outcome, not a loggable failure.
var ErrNotFound = errors.New("product not found")

// SourceUnavailableError reports that the backing store could not be
// read while (re)building the index. The previous snapshot, if any,
// stays in service.
type SourceUnavailableError struct {
	Op  string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("backing store unavailable during %s: %v", e.Op, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}
