// Package month defines the target-month key used by the monthly batch.
// A month is the string "YYYYMM" in JST-agnostic calendar terms; all range
// boundaries are computed in UTC.
package month

import (
	"errors"
	"time"
)

type Month string

var ErrInvalidMonth = errors.New("invalid_target_month")

const layout = "200601"

// Parse validates a "YYYYMM" string.
func Parse(value string) (Month, error) {
	t, err := time.Parse(layout, string(value))
	if err != nil {
		return "", ErrInvalidMonth
	}
	return Month(t.Format(layout)), nil
}

// FromTime returns the month containing t.
func FromTime(t time.Time) Month {
	return Month(t.UTC().Format(layout))
}

func (m Month) String() string { return string(m) }

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	t, _ := time.Parse(layout, string(m))
	return t
}

// End returns midnight UTC on the first day of the following month.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// Days returns the number of calendar days in the month.
func (m Month) Days() int {
	return int(m.End().Sub(m.Start()).Hours() / 24)
}

// Prev returns the preceding month.
func (m Month) Prev() Month {
	return Month(m.Start().AddDate(0, -1, 0).Format(layout))
}
