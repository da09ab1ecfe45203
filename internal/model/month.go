package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMonth is returned when a month label is not YYYY-MM
var ErrInvalidMonth = errors.New("month must be in YYYY-MM format")

// ErrInvalidTimestamp is returned when a timestamp cannot be read as a date/time
var ErrInvalidTimestamp = errors.New("invalid date/time")

const yearMonthLayout = "2006-01"

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// YearMonth identifies a calendar month in UTC
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the UTC calendar month containing t
func YearMonthOf(t time.Time) YearMonth {
	t = t.UTC()
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses a YYYY-MM label
func ParseYearMonth(s string) (YearMonth, error) {
	if len(s) != len(yearMonthLayout) {
		return YearMonth{}, ErrInvalidMonth
	}
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, ErrInvalidMonth
	}
	return YearMonthOf(t), nil
}

// IsZero reports whether the month is unset
func (m YearMonth) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// String formats the month as YYYY-MM
func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MonthsBefore returns the month n calendar months earlier. Works on the
// zero-based month index and borrows whole years when the index goes negative.
func (m YearMonth) MonthsBefore(n int) YearMonth {
	idx := int(m.Month) - 1 - n
	year := m.Year
	if idx < 0 {
		// floor division; Go's / truncates toward zero
		year += (idx - 11) / 12
	}
	idx = ((idx % 12) + 12) % 12
	return YearMonth{Year: year, Month: time.Month(idx + 1)}
}

// ParseTimestamp reads an alert timestamp and returns it in UTC
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
