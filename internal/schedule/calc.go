// Package schedule computes order and delivery dates from a supplier's
// weekly order-day set.
package schedule

import "time"

// ISOWeekday returns the ISO 8601 weekday for t (1=Monday..7=Sunday).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// NextOrderAndDelivery returns the next order date on or after today
// and the resulting delivery date. orderWeekdays must be sorted ISO
// weekdays; the schedule builder guarantees a non-empty, deduplicated
// set, and callers short-circuit products without supplier data before
// reaching this point. An empty set degrades to (today, today+lead).
//
// The chosen weekday is the smallest value >= today's weekday, wrapping
// to the set's minimum when today is past every scheduled day.
func NextOrderAndDelivery(today time.Time, orderWeekdays []int, leadDays int) (time.Time, time.Time) {
	today = truncateToDate(today)
	w := ISOWeekday(today)

	chosen := -1
	for _, day := range orderWeekdays {
		if day >= w {
			chosen = day
			break
		}
	}
	if chosen == -1 && len(orderWeekdays) > 0 {
		chosen = orderWeekdays[0]
	}

	delta := 0
	if chosen != -1 {
		delta = ((chosen - w) % 7 + 7) % 7
	}

	orderDate := today.AddDate(0, 0, delta)
	deliveryDate := orderDate.AddDate(0, 0, leadDays)
	return orderDate, deliveryDate
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
