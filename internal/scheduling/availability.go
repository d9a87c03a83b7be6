package scheduling

import (
	"fmt"
	"strings"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

// weekDays is the canonical day-name set accepted in work schedules.
var weekDays = map[string]bool{
	"sunday":    true,
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
}

// ValidateWorkWindows checks a full work-schedule replacement. Each window
// needs a recognized day plus both ends of the range, and no day may appear
// twice. An empty slice is valid and clears the schedule.
func ValidateWorkWindows(windows []types.WorkWindow) error {
	seen := make(map[string]bool, len(windows))

	for _, w := range windows {
		day := strings.ToLower(strings.TrimSpace(w.Day))
		if day == "" || w.From == "" || w.To == "" {
			return types.NewValidationError(types.ErrCodeIncompleteWindow,
				fmt.Sprintf("work window for %q must have day, from and to", w.Day))
		}
		if !weekDays[day] {
			return types.NewValidationError(types.ErrCodeIncompleteWindow,
				fmt.Sprintf("unknown week day %q", w.Day))
		}
		if _, err := types.ParseClockTime(w.From); err != nil {
			return types.NewValidationError(types.ErrCodeIncompleteWindow,
				fmt.Sprintf("invalid start time %q for %s", w.From, w.Day))
		}
		if _, err := types.ParseClockTime(w.To); err != nil {
			return types.NewValidationError(types.ErrCodeIncompleteWindow,
				fmt.Sprintf("invalid end time %q for %s", w.To, w.Day))
		}
		if seen[day] {
			return types.NewValidationError(types.ErrCodeDuplicateWorkDay,
				fmt.Sprintf("day %s appears more than once", w.Day))
		}
		seen[day] = true
	}

	return nil
}

// ValidateVacationDays checks vacation entries arriving on the write path.
// Stored legacy data is tolerated on read, but a schedule replacement must
// carry only parseable dates.
func ValidateVacationDays(days types.VacationDays) error {
	for _, e := range days {
		if !e.Valid {
			return types.NewValidationError(types.ErrCodeInvalidVacation,
				fmt.Sprintf("unparseable vacation entry %s", string(e.Raw)))
		}
	}
	return nil
}

// IsVacationDay reports whether the doctor is on vacation on the given
// calendar day. Malformed stored entries never match.
func IsVacationDay(doctor *types.Doctor, date types.CalendarDate) bool {
	if doctor == nil {
		return false
	}
	return doctor.VacationDays.Contains(date)
}
