package types

import "time"

// AppointmentStatus represents appointment workflow state values
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Attendance represents whether the patient showed up
type Attendance string

const (
	AttendancePresent Attendance = "present"
	AttendanceAbsent  Attendance = "absent"
	AttendanceNotSet  Attendance = "not_set"
)

// AppointmentKind distinguishes ordinary bookings from admin/doctor-initiated
// special appointments, which bypass the doctor-approval gate.
type AppointmentKind string

const (
	KindNormal  AppointmentKind = "normal"
	KindSpecial AppointmentKind = "special_appointment"
)

// DefaultDurationMinutes is the appointment length used when the request
// does not specify one.
const DefaultDurationMinutes = 30

// Appointment represents a booking record. Booker fields identify who
// performed the booking action; patient fields identify who receives care.
// The two differ only when IsBookingForOther is set, otherwise both mirror
// the booking account's own identity.
type Appointment struct {
	ID                string            `json:"id" db:"id"`
	UserID            string            `json:"userId" db:"user_id"`
	DoctorID          string            `json:"doctorId" db:"doctor_id"`
	UserName          string            `json:"userName" db:"user_name"`
	DoctorName        string            `json:"doctorName" db:"doctor_name"`
	Date              CalendarDate      `json:"date" db:"date"`
	Time              ClockTime         `json:"time" db:"time"`
	DurationMinutes   int               `json:"duration" db:"duration_minutes"`
	Reason            string            `json:"reason,omitempty" db:"reason"`
	PatientName       string            `json:"patientName" db:"patient_name"`
	PatientAge        int               `json:"patientAge" db:"patient_age"`
	PatientPhone      string            `json:"patientPhone" db:"patient_phone"`
	BookerName        string            `json:"bookerName" db:"booker_name"`
	BookerPhone       string            `json:"bookerPhone" db:"booker_phone"`
	IsBookingForOther bool              `json:"isBookingForOther" db:"is_booking_for_other"`
	Kind              AppointmentKind   `json:"type" db:"kind"`
	Status            AppointmentStatus `json:"status" db:"status"`
	Attendance        Attendance        `json:"attendance" db:"attendance"`
	AttendanceTime    *time.Time        `json:"attendanceTime,omitempty" db:"attendance_time"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time         `json:"updatedAt" db:"updated_at"`
}

// EffectiveName returns the name used for duplicate grouping: the booker
// when known, falling back to the patient.
func (a *Appointment) EffectiveName() string {
	if a.UserName != "" {
		return a.UserName
	}
	return a.PatientName
}

// DedupKey identifies logically-identical appointments for the duplicate
// cleanup pass and the read-time list correction.
type DedupKey struct {
	DoctorID string
	Date     CalendarDate
	Time     ClockTime
	Name     string
	Kind     AppointmentKind
}

// DedupKeyOf builds the dedup key for an appointment.
func DedupKeyOf(a *Appointment) DedupKey {
	return DedupKey{
		DoctorID: a.DoctorID,
		Date:     a.Date,
		Time:     a.Time,
		Name:     a.EffectiveName(),
		Kind:     a.Kind,
	}
}

// BookingRequest is the wire input for both booking endpoints. Date and Time
// arrive as strings and are canonicalized before any comparison or storage.
type BookingRequest struct {
	UserID            string `json:"userId"`
	DoctorID          string `json:"doctorId"`
	UserName          string `json:"userName"`
	DoctorName        string `json:"doctorName"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Reason            string `json:"reason"`
	PatientAge        int    `json:"patientAge"`
	DurationMinutes   int    `json:"duration"`
	PatientName       string `json:"patientName"`
	PatientPhone      string `json:"patientPhone"`
	IsBookingForOther bool   `json:"isBookingForOther"`
	BookerName        string `json:"bookerName"`
}

// SpecialAppointmentRequest is the wire input for doctor-initiated special
// appointments. The patient is keyed by phone; a matching account is
// optional.
type SpecialAppointmentRequest struct {
	DoctorID     string `json:"doctorId"`
	DoctorName   string `json:"doctorName"`
	PatientName  string `json:"patientName"`
	PatientPhone string `json:"patientPhone"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Reason       string `json:"reason"`
}

// BookingInfo is the acknowledgement summary distinguishing booker from
// patient.
type BookingInfo struct {
	IsForOther  bool   `json:"isForOther"`
	PatientName string `json:"patientName"`
	BookerName  string `json:"bookerName"`
}

// DisplayInfo is the per-appointment display block attached to doctor-facing
// listings.
type DisplayInfo struct {
	PatientName       string `json:"patientName"`
	PatientAge        int    `json:"patientAge"`
	PatientPhone      string `json:"patientPhone"`
	BookerName        string `json:"bookerName"`
	IsBookingForOther bool   `json:"isBookingForOther"`
	Message           string `json:"message"`
}

// EnrichedAppointment is an appointment plus its display block.
type EnrichedAppointment struct {
	Appointment
	DisplayInfo DisplayInfo `json:"displayInfo"`
}

// AppointmentUpdates represents a partial appointment update.
type AppointmentUpdates struct {
	Date       *CalendarDate      `json:"date,omitempty"`
	Time       *ClockTime         `json:"time,omitempty"`
	Status     *AppointmentStatus `json:"status,omitempty"`
	Attendance *Attendance        `json:"attendance,omitempty"`
	Reason     *string            `json:"reason,omitempty"`
	Duration   *int               `json:"duration,omitempty"`
}

// TrackedBooker is an explicit opt-in record: the doctor is tracking
// bookings made by this phone under this display name. It is a curated view
// over booking history, not an independent source of truth.
type TrackedBooker struct {
	ID          string    `json:"id" db:"id"`
	DoctorID    string    `json:"doctorId" db:"doctor_id"`
	BookerPhone string    `json:"bookerPhone" db:"booker_phone"`
	BookerName  string    `json:"bookerName" db:"booker_name"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CandidateBooker is one group in the candidate proxy-booker listing.
type CandidateBooker struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	TotalBookings int    `json:"totalBookings"`
	IsTracked     bool   `json:"isTracked"`
}

// TrackedBookerBooking is one appointment in a tracked booker's history.
type TrackedBookerBooking struct {
	ID           string       `json:"id"`
	Date         CalendarDate `json:"date"`
	Time         ClockTime    `json:"time"`
	Attendance   Attendance   `json:"attendance"`
	PatientName  string       `json:"patientName"`
	PatientAge   int          `json:"patientAge"`
	PatientPhone string       `json:"patientPhone"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// TrackedBookerWithHistory joins a tracked booker back to the appointment
// history filtered by phone.
type TrackedBookerWithHistory struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Phone     string                 `json:"phone"`
	IsTracked bool                   `json:"isTracked"`
	Bookings  []TrackedBookerBooking `json:"bookings"`
}

// BookingStats summarizes a doctor's booking mix.
type BookingStats struct {
	Total               int                       `json:"total"`
	ForOthers           int                       `json:"forOthers"`
	SelfBookings        int                       `json:"selfBookings"`
	StatusBreakdown     map[AppointmentStatus]int `json:"statusBreakdown"`
	RecentBookings      int                       `json:"recentBookings"`
	PercentageForOthers int                       `json:"percentageForOthers"`
}

// Notification is a fire-and-forget message keyed by user or doctor id.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId,omitempty" db:"user_id"`
	DoctorID  string    `json:"doctorId,omitempty" db:"doctor_id"`
	Kind      string    `json:"kind" db:"kind"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Notification kinds emitted by the scheduling core.
const (
	NotifyNewAppointment       = "new_appointment"
	NotifyAppointmentCancelled = "appointment_cancelled"
	NotifySpecialAppointment   = "special_appointment"
)
