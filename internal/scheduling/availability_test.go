package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

func TestValidateWorkWindows(t *testing.T) {
	tests := []struct {
		name     string
		windows  []types.WorkWindow
		wantCode string
	}{
		{
			name: "valid schedule",
			windows: []types.WorkWindow{
				{Day: "sunday", From: "09:00", To: "13:00"},
				{Day: "monday", From: "14:00", To: "18:00"},
			},
		},
		{
			name:    "empty clears schedule",
			windows: []types.WorkWindow{},
		},
		{
			name: "duplicate day case-insensitive",
			windows: []types.WorkWindow{
				{Day: "tuesday", From: "09:00", To: "13:00"},
				{Day: "Tuesday", From: "14:00", To: "18:00"},
			},
			wantCode: types.ErrCodeDuplicateWorkDay,
		},
		{
			name: "missing end",
			windows: []types.WorkWindow{
				{Day: "sunday", From: "09:00"},
			},
			wantCode: types.ErrCodeIncompleteWindow,
		},
		{
			name: "missing day",
			windows: []types.WorkWindow{
				{From: "09:00", To: "13:00"},
			},
			wantCode: types.ErrCodeIncompleteWindow,
		},
		{
			name: "unknown day",
			windows: []types.WorkWindow{
				{Day: "someday", From: "09:00", To: "13:00"},
			},
			wantCode: types.ErrCodeIncompleteWindow,
		},
		{
			name: "unparseable range",
			windows: []types.WorkWindow{
				{Day: "sunday", From: "9am", To: "1pm"},
			},
			wantCode: types.ErrCodeIncompleteWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkWindows(tt.windows)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var schedErr *types.ScheduleError
			require.ErrorAs(t, err, &schedErr)
			assert.Equal(t, tt.wantCode, schedErr.Code)
		})
	}
}

func TestValidateVacationDays(t *testing.T) {
	date, _ := types.ParseCalendarDate("2026-10-01")

	assert.NoError(t, ValidateVacationDays(nil))
	assert.NoError(t, ValidateVacationDays(types.VacationDays{{Date: date, Valid: true}}))

	err := ValidateVacationDays(types.VacationDays{
		{Date: date, Valid: true},
		{Raw: []byte(`"garbage"`), Valid: false},
	})
	var schedErr *types.ScheduleError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, types.ErrCodeInvalidVacation, schedErr.Code)
}

func TestIsVacationDay(t *testing.T) {
	vacation, _ := types.ParseCalendarDate("2026-10-01")
	other, _ := types.ParseCalendarDate("2026-10-02")

	doctor := &types.Doctor{
		VacationDays: types.VacationDays{
			{Date: vacation, Valid: true},
			{Raw: []byte(`{"bad": true}`), Valid: false},
		},
	}

	assert.True(t, IsVacationDay(doctor, vacation))
	assert.False(t, IsVacationDay(doctor, other))
	assert.False(t, IsVacationDay(nil, vacation))
}
