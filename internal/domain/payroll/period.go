package payroll

import (
	"time"
)

// ValidPeriod reports whether period is a calendar month formatted YYYY-MM.
func ValidPeriod(period string) bool {
	if len(period) != len(PeriodLayout) {
		return false
	}
	_, err := time.Parse(PeriodLayout, period)
	return err == nil
}

// DaysInPeriod returns the number of calendar days in a YYYY-MM period.
func DaysInPeriod(period string) (int, error) {
	start, err := time.Parse(PeriodLayout, period)
	if err != nil || len(period) != len(PeriodLayout) {
		return 0, ErrInvalidPeriod
	}
	return start.AddDate(0, 1, -1).Day(), nil
}

// PeriodOf returns the YYYY-MM period containing t.
func PeriodOf(t time.Time) string {
	return t.Format(PeriodLayout)
}
