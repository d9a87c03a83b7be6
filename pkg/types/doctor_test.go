package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVacationDaysUnmarshal_MixedShapes(t *testing.T) {
	doc := `["2026-10-01", {"date": "2026-10-02"}, {"date": "2026-10-03T00:00:00Z"}, {"oops": 1}, 42]`

	var days VacationDays
	require.NoError(t, json.Unmarshal([]byte(doc), &days))
	require.Len(t, days, 5)

	assert.True(t, days[0].Valid)
	assert.Equal(t, "2026-10-01", days[0].Date.String())

	// Legacy wrapped shape still reads.
	assert.True(t, days[1].Valid)
	assert.Equal(t, "2026-10-02", days[1].Date.String())

	// Wrapped timestamp reduces to its calendar day.
	assert.True(t, days[2].Valid)
	assert.Equal(t, "2026-10-03", days[2].Date.String())

	// Malformed entries are kept but never match a query.
	assert.False(t, days[3].Valid)
	assert.False(t, days[4].Valid)
}

func TestVacationDaysContains_ExactTripleMatch(t *testing.T) {
	var days VacationDays
	require.NoError(t, json.Unmarshal([]byte(`["2026-10-01", {"bad": true}]`), &days))

	match, _ := ParseCalendarDate("2026-10-01")
	miss, _ := ParseCalendarDate("2026-10-02")

	assert.True(t, days.Contains(match))
	assert.False(t, days.Contains(miss))
	assert.False(t, VacationDays(nil).Contains(match))
}

func TestVacationDaysContains_TimestampSameDay(t *testing.T) {
	// A wrapped timestamp with a time-of-day still matches the bare calendar
	// day, because comparison is by (year, month, day) triple only.
	var days VacationDays
	require.NoError(t, json.Unmarshal([]byte(`[{"date": "2026-10-05T14:30:00Z"}]`), &days))

	day, _ := ParseCalendarDate("2026-10-05")
	assert.True(t, days.Contains(day))
}

func TestVacationDaysMarshal_FlattensToBareForm(t *testing.T) {
	var days VacationDays
	require.NoError(t, json.Unmarshal([]byte(`["2026-10-01", {"date": "2026-10-02"}]`), &days))

	out, err := json.Marshal(days)
	require.NoError(t, err)
	assert.JSONEq(t, `["2026-10-01", "2026-10-02"]`, string(out))
}

func TestVacationDaysMarshal_PassesInvalidThrough(t *testing.T) {
	var days VacationDays
	require.NoError(t, json.Unmarshal([]byte(`["2026-10-01", {"oops": 1}]`), &days))

	out, err := json.Marshal(days)
	require.NoError(t, err)
	assert.JSONEq(t, `["2026-10-01", {"oops": 1}]`, string(out))
}

func TestDoctorDocumentRoundTrip(t *testing.T) {
	doc := `{
		"id": "doctor-1",
		"name": "Dr. Ali Hassan",
		"specialty": "cardiology",
		"phone": "+9647700000000",
		"status": "approved",
		"workTimes": [{"day": "sunday", "from": "09:00", "to": "13:00"}],
		"vacationDays": ["2026-10-01"]
	}`

	var doctor Doctor
	require.NoError(t, json.Unmarshal([]byte(doc), &doctor))
	assert.Equal(t, DoctorApproved, doctor.Status)
	require.Len(t, doctor.WorkTimes, 1)
	assert.Equal(t, "09:00", doctor.WorkTimes[0].From)
	require.Len(t, doctor.VacationDays, 1)
	assert.True(t, doctor.VacationDays[0].Valid)
}
