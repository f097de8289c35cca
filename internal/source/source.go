// Package source implements read-only accessors over the backing
// tabular stores: exported spreadsheet documents fetched over HTTP and
// an optional local relational mirror. Sources return raw rows keyed
// by canonical field names; index building happens elsewhere.
package source

import (
	"context"
	"strings"

	"github.com/shopbot/catalog-service/internal/types"
)

// Source is the read-only accessor consumed by the index builder and
// the user directory.
type Source interface {
	// FetchCatalogRows returns every row of the catalog sheet.
	FetchCatalogRows(ctx context.Context) ([]types.Row, error)
	// FetchScheduleRows returns the supplier schedule rows for one shop.
	FetchScheduleRows(ctx context.Context, shopID string) ([]types.Row, error)
	// FetchUserRows returns the user directory rows.
	FetchUserRows(ctx context.Context) ([]types.Row, error)
}

// HeaderMap maps canonical field names to the header labels used in
// the exported sheets. Missing entries default to the canonical name
// itself, so English-labelled sheets need no mapping.
type HeaderMap map[string]string

// headerFor returns the (normalized) source header for a canonical field.
func (m HeaderMap) headerFor(field string) string {
	if m != nil {
		if h, ok := m[field]; ok && h != "" {
			return normalizeHeader(h)
		}
	}
	return normalizeHeader(field)
}

// normalizeHeader lowercases and trims a header label for matching.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// rowsFromRecords converts header+records table data into canonical
// rows. Fields whose mapped header is absent come back as empty
// strings; no validation happens here.
func rowsFromRecords(headers []string, records [][]string, mapping HeaderMap, fields []string) []types.Row {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[normalizeHeader(h)] = i
	}

	rows := make([]types.Row, 0, len(records))
	for _, rec := range records {
		row := make(types.Row, len(fields))
		for _, field := range fields {
			col, ok := index[mapping.headerFor(field)]
			if !ok || col >= len(rec) {
				continue
			}
			row[field] = rec[col]
		}
		rows = append(rows, row)
	}
	return rows
}

// catalogFields lists the canonical fields pulled from catalog rows.
var catalogFields = []string{
	types.FieldArticle,
	types.FieldShop,
	types.FieldName,
	types.FieldDepartment,
	types.FieldSupplierCode,
	types.FieldSupplierName,
	types.FieldTier,
}

// scheduleFields lists the canonical fields pulled from schedule rows.
var scheduleFields = []string{
	types.FieldSupplierCode,
	types.FieldSupplierName,
	types.FieldOrderDay1,
	types.FieldOrderDay2,
	types.FieldOrderDay3,
	types.FieldLeadDays,
}

// userFields lists the canonical fields pulled from user rows.
var userFields = []string{
	types.FieldUserID,
	types.FieldName,
	types.FieldSurname,
	types.FieldPosition,
	types.FieldShop,
}
