package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopbot/catalog-service/internal/types"
)

// parseProduct validates one catalog row. Rows without an article or
// shop are unusable and reported as malformed; everything else is kept
// as-is, article codes staying opaque text.
func parseProduct(row types.Row) (types.Product, bool) {
	article := strings.TrimSpace(row[types.FieldArticle])
	shop := strings.TrimSpace(row[types.FieldShop])
	if article == "" || shop == "" {
		return types.Product{}, false
	}
	return types.Product{
		Article:      article,
		Shop:         shop,
		Name:         strings.TrimSpace(row[types.FieldName]),
		Department:   strings.TrimSpace(row[types.FieldDepartment]),
		SupplierCode: strings.TrimSpace(row[types.FieldSupplierCode]),
		SupplierName: strings.TrimSpace(row[types.FieldSupplierName]),
		Tier:         parseTier(row[types.FieldTier]),
	}, true
}

// parseTier maps the assortment flag to a tier. The sheet historically
// used "1"/"0"; newer exports sometimes carry "A"/"top".
func parseTier(raw string) types.Tier {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "a", "top":
		return types.TierTop
	case "0":
		return types.TierLowest
	default:
		return types.TierUnknown
	}
}

// parseSchedule validates one schedule row. Malformed weekday tokens
// are dropped silently; duplicates collapse; the resulting weekday set
// is sorted. A row without a supplier code or without any valid
// weekday is reported as malformed.
func parseSchedule(row types.Row) (types.SupplierSchedule, bool) {
	code := strings.TrimSpace(row[types.FieldSupplierCode])
	if code == "" {
		return types.SupplierSchedule{}, false
	}

	seen := make(map[int]bool, 3)
	var weekdays []int
	for _, field := range []string{types.FieldOrderDay1, types.FieldOrderDay2, types.FieldOrderDay3} {
		token := strings.TrimSpace(row[field])
		if token == "" {
			continue
		}
		day, err := strconv.Atoi(token)
		if err != nil || day < 1 || day > 7 || seen[day] {
			continue
		}
		seen[day] = true
		weekdays = append(weekdays, day)
	}
	if len(weekdays) == 0 {
		return types.SupplierSchedule{}, false
	}
	sort.Ints(weekdays)

	lead := 0
	if v, err := strconv.Atoi(strings.TrimSpace(row[types.FieldLeadDays])); err == nil && v >= 0 {
		lead = v
	}

	return types.SupplierSchedule{
		SupplierCode:  code,
		SupplierName:  strings.TrimSpace(row[types.FieldSupplierName]),
		OrderWeekdays: weekdays,
		LeadDays:      lead,
	}, true
}
