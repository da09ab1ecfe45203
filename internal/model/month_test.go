package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYearMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    YearMonth
		wantErr bool
	}{
		{in: "2024-01", want: YearMonth{Year: 2024, Month: time.January}},
		{in: "1999-12", want: YearMonth{Year: 1999, Month: time.December}},
		{in: "2024-13", wantErr: true},
		{in: "2024-00", wantErr: true},
		{in: "2024-1", wantErr: true},
		{in: "24-01", wantErr: true},
		{in: "2024/01", wantErr: true},
		{in: "2024-01-15", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYearMonth(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMonth)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestYearMonth_MonthsBefore(t *testing.T) {
	jan2024 := YearMonth{Year: 2024, Month: time.January}

	tests := []struct {
		name string
		from YearMonth
		n    int
		want string
	}{
		{"same month", jan2024, 0, "2024-01"},
		{"across year", jan2024, 1, "2023-12"},
		{"exactly one year", jan2024, 12, "2023-01"},
		{"one year and one month", jan2024, 13, "2022-12"},
		{"several years", jan2024, 37, "2020-12"},
		{"within year", YearMonth{Year: 2024, Month: time.November}, 10, "2024-01"},
		{"december back eleven", YearMonth{Year: 2024, Month: time.December}, 11, "2024-01"},
		{"december back twelve", YearMonth{Year: 2024, Month: time.December}, 12, "2023-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.MonthsBefore(tt.n).String())
		})
	}
}

func TestYearMonth_MonthsBeforeMatchesTimePackage(t *testing.T) {
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	from := YearMonthOf(start)
	for n := 0; n < 60; n++ {
		want := YearMonthOf(start.AddDate(0, -n, 0))
		require.Equal(t, want, from.MonthsBefore(n), "n=%d", n)
	}
}

func TestYearMonthOf_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	// 2024-02-01 03:00 at +05:00 is still January in UTC
	ts := time.Date(2024, time.February, 1, 3, 0, 0, 0, loc)
	assert.Equal(t, "2024-01", YearMonthOf(ts).String())
}

func TestParseTimestamp(t *testing.T) {
	valid := map[string]string{
		"2024-01-15T00:00:00Z":          "2024-01-15T00:00:00Z",
		"2024-01-15T10:30:00.123Z":      "2024-01-15T10:30:00.123Z",
		"2024-01-31T23:30:00-02:00":     "2024-02-01T01:30:00Z",
		"2024-01-15T08:30:00+0100":      "2024-01-15T07:30:00Z",
		"2024-01-15T08:30:00.250-0530":  "2024-01-15T14:00:00.25Z",
		"2024-01-15T08:30Z":             "2024-01-15T08:30:00Z",
		"2024-01-15T08:30+02:00":        "2024-01-15T06:30:00Z",
		"2024-01-15T08:30+0200":         "2024-01-15T06:30:00Z",
		"2024-01-15 08:30:00+0100":      "2024-01-15T07:30:00Z",
		"2024-01-15T10:30:00":           "2024-01-15T10:30:00Z",
		"2024-01-15 10:30:00":           "2024-01-15T10:30:00Z",
		"2024-01-15":                    "2024-01-15T00:00:00Z",
		"Mon, 15 Jan 2024 10:30:00 GMT": "2024-01-15T10:30:00Z",
	}
	for in, want := range valid {
		t.Run(in, func(t *testing.T) {
			got, err := ParseTimestamp(in)
			require.NoError(t, err)
			assert.Equal(t, want, got.Format(time.RFC3339Nano))
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, in := range []string{"", "   ", "yesterday", "2024-13-01", "2024-02-30T00:00:00Z", "15/01/2024"} {
		t.Run("invalid "+in, func(t *testing.T) {
			_, err := ParseTimestamp(in)
			require.ErrorIs(t, err, ErrInvalidTimestamp)
		})
	}
}

func TestAlertSeverity_Valid(t *testing.T) {
	for _, s := range Severities {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, AlertSeverity("low").Valid())
	assert.False(t, AlertSeverity("").Valid())
	assert.False(t, AlertSeverity("INFO").Valid())
}
