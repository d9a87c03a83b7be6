package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCalendarDate(t *testing.T) {
	d, err := ParseCalendarDate("2026-09-14")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year)
	assert.Equal(t, time.September, d.Month)
	assert.Equal(t, 14, d.Day)
	assert.Equal(t, "2026-09-14", d.String())

	for _, bad := range []string{"", "14-09-2026", "2026/09/14", "2026-13-01", "2026-09-14T10:00:00Z"} {
		_, err := ParseCalendarDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseClockTime(t *testing.T) {
	c, err := ParseClockTime("09:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", c.String())

	for _, bad := range []string{"", "9:5", "25:00", "10:30pm"} {
		_, err := ParseClockTime(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestCalendarDateEquality(t *testing.T) {
	a, _ := ParseCalendarDate("2026-09-14")
	b, _ := ParseCalendarDate("2026-09-14")
	c, _ := ParseCalendarDate("2026-09-15")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestCalendarDateJSONRoundTrip(t *testing.T) {
	d, _ := ParseCalendarDate("2026-09-14")

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-14"`, string(out))

	var back CalendarDate
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, d.Equal(back))
}

func TestCalendarDateScan(t *testing.T) {
	var d CalendarDate

	require.NoError(t, d.Scan("2026-09-14"))
	assert.Equal(t, "2026-09-14", d.String())

	require.NoError(t, d.Scan([]byte("2026-09-15")))
	assert.Equal(t, "2026-09-15", d.String())

	require.NoError(t, d.Scan(time.Date(2026, 9, 16, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-09-16", d.String())

	assert.Error(t, d.Scan(42))
}

func TestCalendarDateAt(t *testing.T) {
	d, _ := ParseCalendarDate("2026-09-14")
	c, _ := ParseClockTime("10:30")

	at := d.At(c, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC), at)
}

func TestClockTimeScan(t *testing.T) {
	var c ClockTime

	require.NoError(t, c.Scan("10:30"))
	assert.Equal(t, "10:30", c.String())

	require.NoError(t, c.Scan([]byte("23:59")))
	assert.Equal(t, "23:59", c.String())

	assert.Error(t, c.Scan(1030))
}
