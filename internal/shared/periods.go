package shared

import (
	"fmt"
	"time"
)

// MonthRange bounds a calendar month, inclusive on both ends.
type MonthRange struct {
	Month string
	Start time.Time
	End   time.Time
}

// ParseMonthRange resolves a "YYYY-MM" value into its calendar bounds.
// An empty value falls back to the current month.
func ParseMonthRange(value string, now time.Time) (MonthRange, error) {
	if now.IsZero() {
		now = time.Now()
	}
	if value == "" {
		value = now.Format("2006-01")
	}
	start, err := time.ParseInLocation("2006-01", value, now.Location())
	if err != nil {
		return MonthRange{}, fmt.Errorf("shared: invalid month %q: %w", value, err)
	}
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return MonthRange{Month: value, Start: start, End: end}, nil
}
