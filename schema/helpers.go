package schema

import (
	"fmt"
	"time"
)

// YearMonth converts a Unix timestamp to its yyyymm bucket in UTC.
func YearMonth(ts int64) int {
	return MonthOf(time.Unix(ts, 0))
}

// MonthOf converts a time to its yyyymm bucket in UTC.
func MonthOf(t time.Time) int {
	t = t.UTC()
	return t.Year()*100 + int(t.Month())
}

// MonthStart returns the first instant of a yyyymm bucket in UTC.
func MonthStart(yyyymm int) time.Time {
	return time.Date(yyyymm/100, time.Month(yyyymm%100), 1, 0, 0, 0, 0, time.UTC)
}

// Quarter renders a yyyymm bucket as "2024Q1".
func Quarter(yyyymm int) string {
	return fmt.Sprintf("%dQ%d", yyyymm/100, (yyyymm%100-1)/3+1)
}
