package interfaces

import (
	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

// SchedulingRepository defines the interface for scheduling data persistence
type SchedulingRepository interface {
	// Appointments
	CreateAppointment(apt *types.Appointment) error
	GetAppointmentByID(id string) (*types.Appointment, error)
	UpdateAppointment(id string, updates *types.AppointmentUpdates) (*types.Appointment, error)
	DeleteAppointment(id string) (*types.Appointment, error)
	FindConflict(userID, doctorID string, date types.CalendarDate, t types.ClockTime) (*types.Appointment, error)
	GetDoctorAppointments(doctorID string) ([]*types.Appointment, error)
	GetUserAppointments(userID string) ([]*types.Appointment, error)
	GetDoctorAppointmentsForDate(doctorID string, date types.CalendarDate) ([]*types.Appointment, error)
	GetBookingsForOthers(doctorID string) ([]*types.Appointment, error)
	CountAppointments(doctorID string) (*types.BookingStats, error)

	// Duplicate cleanup: removes records sharing a dedup key, keeping the
	// earliest-created one. Idempotent.
	DeleteDuplicateAppointments() (int, error)

	// Doctors
	GetDoctorByID(id string) (*types.Doctor, error)
	UpdateDoctorSchedule(id string, workTimes []types.WorkWindow, vacationDays types.VacationDays) (*types.Doctor, error)
	UpdateDoctorWorkTimes(id string, workTimes []types.WorkWindow) (*types.Doctor, error)

	// Tracked bookers
	UpsertTrackedBooker(doctorID, bookerPhone, bookerName string) (*types.TrackedBooker, error)
	DeactivateTrackedBooker(doctorID, id string) (*types.TrackedBooker, error)
	GetActiveTrackedBookers(doctorID string) ([]*types.TrackedBooker, error)
}

// AccountDirectory is the identity-lookup surface the scheduling core needs
// from the user subsystem.
type AccountDirectory interface {
	GetAccountByID(id string) (*types.Account, error)
	GetAccountByPhone(phone string) (*types.Account, error)
}

// NotificationSink accepts fire-and-forget messages keyed by user or doctor
// id. Implementations must be safe to fail: the booking pipeline logs and
// swallows dispatch errors.
type NotificationSink interface {
	Notify(n *types.Notification) error
}
