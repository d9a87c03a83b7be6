package scheduling

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/interfaces"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

// MemoryRepository is an in-memory SchedulingRepository used in tests and
// local development. All methods copy records on the way in and out so
// callers can never mutate shared state.
type MemoryRepository struct {
	mu             sync.RWMutex
	appointments   map[string]*types.Appointment
	doctors        map[string]*types.Doctor
	accounts       map[string]*types.Account
	trackedBookers map[string]*types.TrackedBooker
	notifications  []*types.Notification
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		appointments:   make(map[string]*types.Appointment),
		doctors:        make(map[string]*types.Doctor),
		accounts:       make(map[string]*types.Account),
		trackedBookers: make(map[string]*types.TrackedBooker),
	}
}

// AddDoctor seeds a doctor record.
func (m *MemoryRepository) AddDoctor(d *types.Doctor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.doctors[d.ID] = &cp
}

// AddAccount seeds a user account.
func (m *MemoryRepository) AddAccount(a *types.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.ID] = &cp
}

// SeedAppointment stores an appointment without the unique slot check.
// Tests use it to model legacy rows that predate the slot index.
func (m *MemoryRepository) SeedAppointment(apt *types.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *apt
	m.appointments[apt.ID] = &cp
}

// Notifications returns the stored notification records.
func (m *MemoryRepository) Notifications() []*types.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// CreateAppointment stores an appointment, enforcing the unique slot rule
// the way the storage index does.
func (m *MemoryRepository) CreateAppointment(apt *types.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.appointments {
		if existing.DoctorID == apt.DoctorID &&
			existing.Date.Equal(apt.Date) &&
			existing.Time == apt.Time &&
			existing.Kind == apt.Kind {
			return types.NewConflictError(types.ErrCodeSlotTaken,
				"this time slot is already booked")
		}
	}

	cp := *apt
	m.appointments[apt.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetAppointmentByID(id string) (*types.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apt, ok := m.appointments[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeAppointmentMissing,
			fmt.Sprintf("appointment %s not found", id))
	}
	cp := *apt
	return &cp, nil
}

func (m *MemoryRepository) UpdateAppointment(id string, updates *types.AppointmentUpdates) (*types.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	apt, ok := m.appointments[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeAppointmentMissing,
			fmt.Sprintf("appointment %s not found", id))
	}

	if updates.Date != nil {
		apt.Date = *updates.Date
	}
	if updates.Time != nil {
		apt.Time = *updates.Time
	}
	if updates.Status != nil {
		apt.Status = *updates.Status
	}
	if updates.Attendance != nil {
		apt.Attendance = *updates.Attendance
		if *updates.Attendance == types.AttendancePresent {
			now := time.Now()
			apt.AttendanceTime = &now
		} else {
			apt.AttendanceTime = nil
		}
	}
	if updates.Reason != nil {
		apt.Reason = *updates.Reason
	}
	if updates.Duration != nil {
		apt.DurationMinutes = *updates.Duration
	}
	apt.UpdatedAt = time.Now()

	cp := *apt
	return &cp, nil
}

func (m *MemoryRepository) DeleteAppointment(id string) (*types.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	apt, ok := m.appointments[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeAppointmentMissing,
			fmt.Sprintf("appointment %s not found", id))
	}
	delete(m.appointments, id)
	return apt, nil
}

func (m *MemoryRepository) FindConflict(userID, doctorID string, date types.CalendarDate, t types.ClockTime) (*types.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, apt := range m.appointments {
		if apt.UserID == userID && apt.DoctorID == doctorID &&
			apt.Date.Equal(date) && apt.Time == t {
			cp := *apt
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) GetDoctorAppointments(doctorID string) ([]*types.Appointment, error) {
	return m.filterAppointments(func(a *types.Appointment) bool {
		return a.DoctorID == doctorID
	}, byDateTime), nil
}

func (m *MemoryRepository) GetUserAppointments(userID string) ([]*types.Appointment, error) {
	return m.filterAppointments(func(a *types.Appointment) bool {
		return a.UserID == userID
	}, byDateTime), nil
}

func (m *MemoryRepository) GetDoctorAppointmentsForDate(doctorID string, date types.CalendarDate) ([]*types.Appointment, error) {
	return m.filterAppointments(func(a *types.Appointment) bool {
		return a.DoctorID == doctorID && a.Date.Equal(date)
	}, byDateTime), nil
}

func (m *MemoryRepository) GetBookingsForOthers(doctorID string) ([]*types.Appointment, error) {
	return m.filterAppointments(func(a *types.Appointment) bool {
		return a.DoctorID == doctorID && a.IsBookingForOther
	}, byCreatedDesc), nil
}

func (m *MemoryRepository) CountAppointments(doctorID string) (*types.BookingStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &types.BookingStats{
		StatusBreakdown: make(map[types.AppointmentStatus]int),
	}
	cutoff := time.Now().AddDate(0, 0, -30)

	for _, apt := range m.appointments {
		if apt.DoctorID != doctorID {
			continue
		}
		stats.Total++
		if apt.IsBookingForOther {
			stats.ForOthers++
		}
		if apt.CreatedAt.After(cutoff) {
			stats.RecentBookings++
		}
		stats.StatusBreakdown[apt.Status]++
	}
	stats.SelfBookings = stats.Total - stats.ForOthers
	if stats.Total > 0 {
		stats.PercentageForOthers = stats.ForOthers * 100 / stats.Total
	}

	return stats, nil
}

// DeleteDuplicateAppointments keeps the earliest-created record of every
// dedup group and removes the rest.
func (m *MemoryRepository) DeleteDuplicateAppointments() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keep := make(map[types.DedupKey]*types.Appointment)
	for _, apt := range m.appointments {
		key := types.DedupKeyOf(apt)
		current, ok := keep[key]
		if !ok || apt.CreatedAt.Before(current.CreatedAt) ||
			(apt.CreatedAt.Equal(current.CreatedAt) && apt.ID < current.ID) {
			keep[key] = apt
		}
	}

	removed := 0
	for id, apt := range m.appointments {
		if keep[types.DedupKeyOf(apt)].ID != id {
			delete(m.appointments, id)
			removed++
		}
	}

	return removed, nil
}

func (m *MemoryRepository) GetDoctorByID(id string) (*types.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doctor, ok := m.doctors[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeDoctorNotFound,
			fmt.Sprintf("doctor %s not found", id))
	}
	cp := *doctor
	return &cp, nil
}

func (m *MemoryRepository) UpdateDoctorSchedule(id string, workTimes []types.WorkWindow, vacationDays types.VacationDays) (*types.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doctor, ok := m.doctors[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeDoctorNotFound,
			fmt.Sprintf("doctor %s not found", id))
	}
	doctor.WorkTimes = append([]types.WorkWindow(nil), workTimes...)
	doctor.VacationDays = append(types.VacationDays(nil), vacationDays...)
	doctor.UpdatedAt = time.Now()

	cp := *doctor
	return &cp, nil
}

func (m *MemoryRepository) UpdateDoctorWorkTimes(id string, workTimes []types.WorkWindow) (*types.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doctor, ok := m.doctors[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeDoctorNotFound,
			fmt.Sprintf("doctor %s not found", id))
	}
	doctor.WorkTimes = append([]types.WorkWindow(nil), workTimes...)
	doctor.UpdatedAt = time.Now()

	cp := *doctor
	return &cp, nil
}

func (m *MemoryRepository) UpsertTrackedBooker(doctorID, bookerPhone, bookerName string) (*types.TrackedBooker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tb := range m.trackedBookers {
		if tb.DoctorID == doctorID && tb.BookerPhone == bookerPhone {
			tb.BookerName = bookerName
			tb.IsActive = true
			tb.UpdatedAt = time.Now()
			cp := *tb
			return &cp, nil
		}
	}

	tb := &types.TrackedBooker{
		ID:          newID(),
		DoctorID:    doctorID,
		BookerPhone: bookerPhone,
		BookerName:  bookerName,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.trackedBookers[tb.ID] = tb

	cp := *tb
	return &cp, nil
}

func (m *MemoryRepository) DeactivateTrackedBooker(doctorID, id string) (*types.TrackedBooker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tb, ok := m.trackedBookers[id]
	if !ok || tb.DoctorID != doctorID {
		return nil, types.NewNotFoundError(types.ErrCodeBookerNotFound,
			fmt.Sprintf("tracked booker %s not found", id))
	}
	tb.IsActive = false
	tb.UpdatedAt = time.Now()

	cp := *tb
	return &cp, nil
}

func (m *MemoryRepository) GetActiveTrackedBookers(doctorID string) ([]*types.TrackedBooker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var bookers []*types.TrackedBooker
	for _, tb := range m.trackedBookers {
		if tb.DoctorID == doctorID && tb.IsActive {
			cp := *tb
			bookers = append(bookers, &cp)
		}
	}
	sort.Slice(bookers, func(i, j int) bool {
		return bookers[i].CreatedAt.After(bookers[j].CreatedAt)
	})

	return bookers, nil
}

func (m *MemoryRepository) GetAccountByID(id string) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeMissingFields,
			fmt.Sprintf("user %s not found", id))
	}
	cp := *acc
	return &cp, nil
}

func (m *MemoryRepository) GetAccountByPhone(phone string) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, acc := range m.accounts {
		if acc.Phone == phone {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeMissingFields,
		fmt.Sprintf("no user with phone %s", phone))
}

func (m *MemoryRepository) InsertNotification(n *types.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

// filterAppointments copies every matching appointment and sorts the result.
func (m *MemoryRepository) filterAppointments(match func(*types.Appointment) bool, less func(a, b *types.Appointment) bool) []*types.Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Appointment
	for _, apt := range m.appointments {
		if match(apt) {
			cp := *apt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })

	return out
}

func byDateTime(a, b *types.Appointment) bool {
	if a.Date != b.Date {
		return a.Date.String() < b.Date.String()
	}
	if a.Time != b.Time {
		return a.Time.String() < b.Time.String()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func byCreatedDesc(a, b *types.Appointment) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

var _ interfaces.SchedulingRepository = (*MemoryRepository)(nil)
var _ interfaces.AccountDirectory = (*MemoryRepository)(nil)
