package scheduling

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/database"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/interfaces"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/logger"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

// appointmentColumns is the shared SELECT column list for appointment scans.
const appointmentColumns = `id, user_id, doctor_id, user_name, doctor_name, date, time,
	duration_minutes, COALESCE(reason, ''), patient_name, COALESCE(patient_age, 0),
	patient_phone, booker_name, booker_phone, is_booking_for_other, kind, status,
	attendance, attendance_time, created_at, updated_at`

// Repository implements SchedulingRepository and AccountDirectory over
// PostgreSQL.
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new scheduling repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// CreateAppointment inserts a new appointment. A violation of the unique
// slot index surfaces as a conflict error, so two requests racing for the
// same slot cannot both land.
func (r *Repository) CreateAppointment(apt *types.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, user_id, doctor_id, user_name, doctor_name, date, time,
			duration_minutes, reason, patient_name, patient_age, patient_phone,
			booker_name, booker_phone, is_booking_for_other, kind, status,
			attendance, created_at, updated_at
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.db.Exec(query,
		apt.ID,
		apt.UserID,
		apt.DoctorID,
		apt.UserName,
		apt.DoctorName,
		apt.Date,
		apt.Time,
		apt.DurationMinutes,
		apt.Reason,
		apt.PatientName,
		apt.PatientAge,
		apt.PatientPhone,
		apt.BookerName,
		apt.BookerPhone,
		apt.IsBookingForOther,
		apt.Kind,
		apt.Status,
		apt.Attendance,
		apt.CreatedAt,
		apt.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return types.NewConflictError(types.ErrCodeSlotTaken,
				"this time slot is already booked")
		}
		r.logger.WithError(err).Error("Failed to create appointment")
		return types.NewStorageError(types.ErrCodeStorageFailure, "failed to create appointment", err)
	}

	return nil
}

// GetAppointmentByID retrieves an appointment by ID
func (r *Repository) GetAppointmentByID(id string) (*types.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)

	apt, err := scanAppointment(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeAppointmentMissing,
				fmt.Sprintf("appointment %s not found", id))
		}
		r.logger.WithAppointmentID(id).WithError(err).Error("Failed to get appointment")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to get appointment", err)
	}

	return apt, nil
}

// UpdateAppointment applies a partial update and returns the updated record.
func (r *Repository) UpdateAppointment(id string, updates *types.AppointmentUpdates) (*types.Appointment, error) {
	setParts := []string{}
	args := []interface{}{}
	argIndex := 1

	add := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if updates.Date != nil {
		add("date", *updates.Date)
	}
	if updates.Time != nil {
		add("time", *updates.Time)
	}
	if updates.Status != nil {
		add("status", string(*updates.Status))
	}
	if updates.Attendance != nil {
		add("attendance", string(*updates.Attendance))
		if *updates.Attendance == types.AttendancePresent {
			add("attendance_time", time.Now())
		} else {
			setParts = append(setParts, "attendance_time = NULL")
		}
	}
	if updates.Reason != nil {
		add("reason", *updates.Reason)
	}
	if updates.Duration != nil {
		add("duration_minutes", *updates.Duration)
	}

	if len(setParts) == 0 {
		return nil, types.NewValidationError(types.ErrCodeMissingFields, "no updates provided")
	}

	add("updated_at", time.Now())

	query := fmt.Sprintf(`UPDATE appointments SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), argIndex, appointmentColumns)
	args = append(args, id)

	apt, err := scanAppointment(r.db.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeAppointmentMissing,
				fmt.Sprintf("appointment %s not found", id))
		}
		if isUniqueViolation(err) {
			return nil, types.NewConflictError(types.ErrCodeSlotTaken,
				"this time slot is already booked")
		}
		r.logger.WithAppointmentID(id).WithError(err).Error("Failed to update appointment")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to update appointment", err)
	}

	return apt, nil
}

// DeleteAppointment hard-deletes an appointment and returns the deleted
// record so the caller can notify the affected patient.
func (r *Repository) DeleteAppointment(id string) (*types.Appointment, error) {
	query := fmt.Sprintf(`DELETE FROM appointments WHERE id = $1 RETURNING %s`, appointmentColumns)

	apt, err := scanAppointment(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeAppointmentMissing,
				fmt.Sprintf("appointment %s not found", id))
		}
		r.logger.WithAppointmentID(id).WithError(err).Error("Failed to delete appointment")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to delete appointment", err)
	}

	return apt, nil
}

// FindConflict returns an existing live booking for the exact
// (user, doctor, date, time) tuple, or nil when the slot is free for this
// account.
func (r *Repository) FindConflict(userID, doctorID string, date types.CalendarDate, t types.ClockTime) (*types.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE user_id = $1 AND doctor_id = $2 AND date = $3 AND time = $4
		LIMIT 1`, appointmentColumns)

	apt, err := scanAppointment(r.db.QueryRow(query, userID, doctorID, date, t))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithError(err).Error("Failed to check booking conflict")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to check conflict", err)
	}

	return apt, nil
}

// GetDoctorAppointments retrieves all appointments for a doctor ordered by
// date then time.
func (r *Repository) GetDoctorAppointments(doctorID string) ([]*types.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE doctor_id = $1
		ORDER BY date ASC, time ASC`, appointmentColumns)

	return r.queryAppointments(query, doctorID)
}

// GetUserAppointments retrieves all appointments booked by a user ordered by
// date then time.
func (r *Repository) GetUserAppointments(userID string) ([]*types.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE user_id = $1
		ORDER BY date ASC, time ASC`, appointmentColumns)

	return r.queryAppointments(query, userID)
}

// GetDoctorAppointmentsForDate retrieves a doctor's appointments on a single
// calendar day.
func (r *Repository) GetDoctorAppointmentsForDate(doctorID string, date types.CalendarDate) ([]*types.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE doctor_id = $1 AND date = $2
		ORDER BY time ASC`, appointmentColumns)

	return r.queryAppointments(query, doctorID, date)
}

// GetBookingsForOthers retrieves a doctor's proxy bookings, newest first.
func (r *Repository) GetBookingsForOthers(doctorID string) ([]*types.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE doctor_id = $1 AND is_booking_for_other = TRUE
		ORDER BY created_at DESC`, appointmentColumns)

	return r.queryAppointments(query, doctorID)
}

// CountAppointments aggregates a doctor's booking mix.
func (r *Repository) CountAppointments(doctorID string) (*types.BookingStats, error) {
	stats := &types.BookingStats{
		StatusBreakdown: make(map[types.AppointmentStatus]int),
	}

	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_booking_for_other),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '30 days')
		FROM appointments WHERE doctor_id = $1`

	err := r.db.QueryRow(query, doctorID).Scan(&stats.Total, &stats.ForOthers, &stats.RecentBookings)
	if err != nil {
		r.logger.WithDoctorID(doctorID).WithError(err).Error("Failed to count appointments")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to count appointments", err)
	}
	stats.SelfBookings = stats.Total - stats.ForOthers
	if stats.Total > 0 {
		stats.PercentageForOthers = stats.ForOthers * 100 / stats.Total
	}

	rows, err := r.db.Query(
		`SELECT status, COUNT(*) FROM appointments WHERE doctor_id = $1 GROUP BY status`, doctorID)
	if err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to count appointments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status types.AppointmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to count appointments", err)
		}
		stats.StatusBreakdown[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to count appointments", err)
	}

	return stats, nil
}

// DeleteDuplicateAppointments removes duplicates sharing the grouping key
// (doctor, date, time, effective name, kind), keeping the earliest-created
// record of each group. Running it twice removes nothing the second time.
func (r *Repository) DeleteDuplicateAppointments() (int, error) {
	query := `
		DELETE FROM appointments a USING appointments b
		WHERE a.doctor_id = b.doctor_id
		  AND a.date = b.date
		  AND a.time = b.time
		  AND a.kind = b.kind
		  AND COALESCE(NULLIF(a.user_name, ''), a.patient_name) =
		      COALESCE(NULLIF(b.user_name, ''), b.patient_name)
		  AND (a.created_at > b.created_at
		       OR (a.created_at = b.created_at AND a.id > b.id))`

	result, err := r.db.Exec(query)
	if err != nil {
		r.logger.WithError(err).Error("Failed to clean duplicate appointments")
		return 0, types.NewStorageError(types.ErrCodeStorageFailure, "failed to clean duplicates", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, types.NewStorageError(types.ErrCodeStorageFailure, "failed to clean duplicates", err)
	}

	return int(removed), nil
}

// GetDoctorByID retrieves a doctor with its schedule
func (r *Repository) GetDoctorByID(id string) (*types.Doctor, error) {
	query := `
		SELECT id, name, COALESCE(specialty, ''), COALESCE(phone, ''), status,
			work_times, vacation_days, created_at, updated_at
		FROM doctors WHERE id = $1`

	doctor := &types.Doctor{}
	var workTimes, vacationDays []byte

	err := r.db.QueryRow(query, id).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Specialty,
		&doctor.Phone,
		&doctor.Status,
		&workTimes,
		&vacationDays,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeDoctorNotFound,
				fmt.Sprintf("doctor %s not found", id))
		}
		r.logger.WithDoctorID(id).WithError(err).Error("Failed to get doctor")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to get doctor", err)
	}

	if err := json.Unmarshal(workTimes, &doctor.WorkTimes); err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "corrupt work_times document", err)
	}
	if err := json.Unmarshal(vacationDays, &doctor.VacationDays); err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "corrupt vacation_days document", err)
	}

	return doctor, nil
}

// UpdateDoctorSchedule replaces both the work windows and the vacation days.
func (r *Repository) UpdateDoctorSchedule(id string, workTimes []types.WorkWindow, vacationDays types.VacationDays) (*types.Doctor, error) {
	workDoc, err := json.Marshal(workTimes)
	if err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to encode work times", err)
	}
	vacationDoc, err := json.Marshal(vacationDays)
	if err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to encode vacation days", err)
	}

	query := `
		UPDATE doctors SET work_times = $1, vacation_days = $2, updated_at = NOW()
		WHERE id = $3`

	result, err := r.db.Exec(query, workDoc, vacationDoc, id)
	if err != nil {
		r.logger.WithDoctorID(id).WithError(err).Error("Failed to update doctor schedule")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to update schedule", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, types.NewNotFoundError(types.ErrCodeDoctorNotFound,
			fmt.Sprintf("doctor %s not found", id))
	}

	return r.GetDoctorByID(id)
}

// UpdateDoctorWorkTimes replaces only the work windows, leaving vacation days
// untouched.
func (r *Repository) UpdateDoctorWorkTimes(id string, workTimes []types.WorkWindow) (*types.Doctor, error) {
	workDoc, err := json.Marshal(workTimes)
	if err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to encode work times", err)
	}

	result, err := r.db.Exec(
		`UPDATE doctors SET work_times = $1, updated_at = NOW() WHERE id = $2`, workDoc, id)
	if err != nil {
		r.logger.WithDoctorID(id).WithError(err).Error("Failed to update doctor work times")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to update work times", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, types.NewNotFoundError(types.ErrCodeDoctorNotFound,
			fmt.Sprintf("doctor %s not found", id))
	}

	return r.GetDoctorByID(id)
}

// UpsertTrackedBooker creates or reactivates the tracking record for a
// (doctor, booker phone) pair. Repeated tracking refreshes the display name
// instead of failing.
func (r *Repository) UpsertTrackedBooker(doctorID, bookerPhone, bookerName string) (*types.TrackedBooker, error) {
	query := `
		INSERT INTO tracked_bookers (id, doctor_id, booker_phone, booker_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		ON CONFLICT (doctor_id, booker_phone) DO UPDATE
			SET booker_name = EXCLUDED.booker_name, is_active = TRUE, updated_at = NOW()
		RETURNING id, doctor_id, booker_phone, booker_name, is_active, created_at, updated_at`

	tb := &types.TrackedBooker{}
	err := r.db.QueryRow(query, newID(), doctorID, bookerPhone, bookerName).Scan(
		&tb.ID, &tb.DoctorID, &tb.BookerPhone, &tb.BookerName, &tb.IsActive, &tb.CreatedAt, &tb.UpdatedAt)
	if err != nil {
		r.logger.WithDoctorID(doctorID).WithError(err).Error("Failed to upsert tracked booker")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to track booker", err)
	}

	return tb, nil
}

// DeactivateTrackedBooker soft-deletes a tracking record. The row survives so
// re-tracking later reuses it.
func (r *Repository) DeactivateTrackedBooker(doctorID, id string) (*types.TrackedBooker, error) {
	query := `
		UPDATE tracked_bookers SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND doctor_id = $2
		RETURNING id, doctor_id, booker_phone, booker_name, is_active, created_at, updated_at`

	tb := &types.TrackedBooker{}
	err := r.db.QueryRow(query, id, doctorID).Scan(
		&tb.ID, &tb.DoctorID, &tb.BookerPhone, &tb.BookerName, &tb.IsActive, &tb.CreatedAt, &tb.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeBookerNotFound,
				fmt.Sprintf("tracked booker %s not found", id))
		}
		r.logger.WithDoctorID(doctorID).WithError(err).Error("Failed to deactivate tracked booker")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to untrack booker", err)
	}

	return tb, nil
}

// GetActiveTrackedBookers lists a doctor's live tracking records.
func (r *Repository) GetActiveTrackedBookers(doctorID string) ([]*types.TrackedBooker, error) {
	query := `
		SELECT id, doctor_id, booker_phone, booker_name, is_active, created_at, updated_at
		FROM tracked_bookers
		WHERE doctor_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, doctorID)
	if err != nil {
		r.logger.WithDoctorID(doctorID).WithError(err).Error("Failed to list tracked bookers")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to list tracked bookers", err)
	}
	defer rows.Close()

	var bookers []*types.TrackedBooker
	for rows.Next() {
		tb := &types.TrackedBooker{}
		if err := rows.Scan(&tb.ID, &tb.DoctorID, &tb.BookerPhone, &tb.BookerName,
			&tb.IsActive, &tb.CreatedAt, &tb.UpdatedAt); err != nil {
			return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to list tracked bookers", err)
		}
		bookers = append(bookers, tb)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to list tracked bookers", err)
	}

	return bookers, nil
}

// GetAccountByID retrieves a user account
func (r *Repository) GetAccountByID(id string) (*types.Account, error) {
	acc := &types.Account{}
	err := r.db.QueryRow(
		`SELECT id, first_name, phone FROM users WHERE id = $1`, id).
		Scan(&acc.ID, &acc.FirstName, &acc.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeMissingFields,
				fmt.Sprintf("user %s not found", id))
		}
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to get user", err)
	}
	return acc, nil
}

// GetAccountByPhone retrieves a user account by its normalized phone.
func (r *Repository) GetAccountByPhone(phone string) (*types.Account, error) {
	acc := &types.Account{}
	err := r.db.QueryRow(
		`SELECT id, first_name, phone FROM users WHERE phone = $1`, phone).
		Scan(&acc.ID, &acc.FirstName, &acc.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeMissingFields,
				fmt.Sprintf("no user with phone %s", phone))
		}
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to get user", err)
	}
	return acc, nil
}

// InsertNotification persists a notification record for later in-app
// retrieval. Dispatch over the wire is the sink's job, not the repository's.
func (r *Repository) InsertNotification(n *types.Notification) error {
	_, err := r.db.Exec(
		`INSERT INTO notifications (id, user_id, doctor_id, kind, message, read, created_at)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7)`,
		n.ID, n.UserID, n.DoctorID, n.Kind, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return types.NewStorageError(types.ErrCodeStorageFailure, "failed to store notification", err)
	}
	return nil
}

// queryAppointments runs a multi-row appointment query.
func (r *Repository) queryAppointments(query string, args ...interface{}) ([]*types.Appointment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Failed to query appointments")
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to query appointments", err)
	}
	defer rows.Close()

	var appointments []*types.Appointment
	for rows.Next() {
		apt, err := scanAppointment(rows)
		if err != nil {
			return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to scan appointment", err)
		}
		appointments = append(appointments, apt)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageFailure, "failed to query appointments", err)
	}

	return appointments, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAppointment scans one appointment row in appointmentColumns order.
func scanAppointment(row rowScanner) (*types.Appointment, error) {
	apt := &types.Appointment{}
	var userID sql.NullString

	err := row.Scan(
		&apt.ID,
		&userID,
		&apt.DoctorID,
		&apt.UserName,
		&apt.DoctorName,
		&apt.Date,
		&apt.Time,
		&apt.DurationMinutes,
		&apt.Reason,
		&apt.PatientName,
		&apt.PatientAge,
		&apt.PatientPhone,
		&apt.BookerName,
		&apt.BookerPhone,
		&apt.IsBookingForOther,
		&apt.Kind,
		&apt.Status,
		&apt.Attendance,
		&apt.AttendanceTime,
		&apt.CreatedAt,
		&apt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	apt.UserID = userID.String
	return apt, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

var _ interfaces.SchedulingRepository = (*Repository)(nil)
var _ interfaces.AccountDirectory = (*Repository)(nil)
