package types

import (
	"encoding/json"
	"time"
)

// DoctorStatus represents the moderation state of a doctor account
type DoctorStatus string

const (
	DoctorPending  DoctorStatus = "pending"
	DoctorApproved DoctorStatus = "approved"
	DoctorRejected DoctorStatus = "rejected"
)

// Doctor represents a doctor account with its availability schedule
type Doctor struct {
	ID           string       `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Specialty    string       `json:"specialty" db:"specialty"`
	Phone        string       `json:"phone" db:"phone"`
	Status       DoctorStatus `json:"status" db:"status"`
	WorkTimes    []WorkWindow `json:"workTimes" db:"work_times"`
	VacationDays VacationDays `json:"vacationDays" db:"vacation_days"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// WorkWindow is a recurring weekly availability range. Work windows are
// informational for client display and slot generation; the server-side
// booking gate is the vacation check plus the conflict check, not window
// containment.
type WorkWindow struct {
	Day  string `json:"day"`
	From string `json:"from"`
	To   string `json:"to"`
}

// VacationEntry is one vacation date. Two shapes exist in stored data: the
// current bare date string, and a legacy object wrapping a "date" field.
// Reads tolerate both; new writes always produce the bare form.
type VacationEntry struct {
	Date CalendarDate
	// Raw preserves the original stored representation so that re-saving a
	// schedule does not silently rewrite legacy entries the doctor never
	// touched.
	Raw json.RawMessage
	// Valid is false for entries that could not be parsed; they are kept but
	// never match any queried date.
	Valid bool
}

// VacationDays is the ordered sequence of a doctor's vacation dates.
type VacationDays []VacationEntry

// UnmarshalJSON parses a vacation-day array tolerating both the bare date
// form and the legacy wrapped-object form. Malformed entries are retained as
// invalid rather than failing the whole document.
func (v *VacationDays) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	entries := make(VacationDays, 0, len(raws))
	for _, raw := range raws {
		entries = append(entries, parseVacationEntry(raw))
	}
	*v = entries
	return nil
}

// MarshalJSON writes every entry in the bare date-string form. Legacy
// wrapped entries are flattened on write; invalid entries are passed through
// untouched.
func (v VacationDays) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(v))
	for _, e := range v {
		if !e.Valid {
			if len(e.Raw) > 0 {
				out = append(out, e.Raw)
			} else {
				out = append(out, json.RawMessage("null"))
			}
			continue
		}
		b, err := json.Marshal(e.Date.String())
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

// parseVacationEntry decodes a single stored vacation value.
func parseVacationEntry(raw json.RawMessage) VacationEntry {
	entry := VacationEntry{Raw: raw}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if d, ok := parseVacationDate(s); ok {
			entry.Date = d
			entry.Valid = true
		}
		return entry
	}

	// Legacy shape: {"date": <value>}
	var wrapped struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Date != "" {
		if d, ok := parseVacationDate(wrapped.Date); ok {
			entry.Date = d
			entry.Valid = true
		}
	}
	return entry
}

// parseVacationDate accepts both a plain calendar date and a full timestamp,
// reducing either to the calendar day.
func parseVacationDate(s string) (CalendarDate, bool) {
	if d, err := ParseCalendarDate(s); err == nil {
		return d, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), true
	}
	return CalendarDate{}, false
}

// Contains reports whether the given calendar day is a vacation day.
// Comparison is by exact (year, month, day) triple; time-of-day and zone
// offset within the same calendar day never matter. Invalid entries are
// skipped.
func (v VacationDays) Contains(date CalendarDate) bool {
	for _, e := range v {
		if e.Valid && e.Date.Equal(date) {
			return true
		}
	}
	return false
}

// Account is the minimal identity surface the scheduling core needs from the
// user subsystem.
type Account struct {
	ID        string `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	Phone     string `json:"phone" db:"phone"`
}
