package scheduling

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/config"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/database"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/interfaces"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/logger"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/monitoring"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/phone"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

// newID returns a fresh record identifier.
func newID() string {
	return uuid.New().String()
}

// Service is the scheduling core: the booking pipeline, the availability
// model, duplicate cleanup and the tracked-booker registry.
type Service struct {
	config   *config.Config
	logger   *logger.Logger
	repo     interfaces.SchedulingRepository
	accounts interfaces.AccountDirectory
	notifier *NotificationManager
	metrics  *monitoring.MetricsCollector
	db       *database.DB
	server   *http.Server
	now      func() time.Time
}

// New wires the scheduling service against PostgreSQL and Redis.
func New(cfg *config.Config, log *logger.Logger) (*Service, error) {
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.CreateSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	repo := NewRepository(db, log)

	var metrics *monitoring.MetricsCollector
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetricsCollector("scheduling")
	}

	sink := NewRedisSink(&cfg.Redis, log)
	notifier := NewNotificationManager(sink, repo, log, metrics, cfg.Notifications.Enabled)

	return &Service{
		config:   cfg,
		logger:   log,
		repo:     repo,
		accounts: repo,
		notifier: notifier,
		metrics:  metrics,
		db:       db,
		now:      time.Now,
	}, nil
}

// BookAppointment runs the booking pipeline for a self booking or a proxy
// booking, depending on the request's isBookingForOther flag.
func (s *Service) BookAppointment(req *types.BookingRequest) (*types.Appointment, *types.BookingInfo, error) {
	date, clockTime, err := s.validateBookingRequest(req)
	if err != nil {
		s.recordBooking("rejected", req.IsBookingForOther)
		return nil, nil, err
	}

	doctor, err := s.repo.GetDoctorByID(req.DoctorID)
	if err != nil {
		s.recordBooking("rejected", req.IsBookingForOther)
		return nil, nil, err
	}

	if doctor.Status != types.DoctorApproved {
		s.recordBooking("rejected", req.IsBookingForOther)
		return nil, nil, types.NewValidationError(types.ErrCodeDoctorNotApproved,
			"this doctor is not accepting bookings yet")
	}

	if IsVacationDay(doctor, date) {
		s.recordBooking("rejected", req.IsBookingForOther)
		return nil, nil, types.NewUnavailableDateError(types.ErrCodeVacationDay,
			fmt.Sprintf("doctor is on vacation on %s", date))
	}

	apt := s.buildAppointment(req, doctor, date, clockTime)

	// Pre-check gives the caller a clean conflict message; the unique slot
	// index still catches whatever races past it.
	if existing, err := s.repo.FindConflict(apt.UserID, apt.DoctorID, date, clockTime); err != nil {
		s.recordBooking("error", req.IsBookingForOther)
		return nil, nil, err
	} else if existing != nil {
		s.recordConflict(req.IsBookingForOther)
		return nil, nil, types.NewConflictError(types.ErrCodeSlotTaken,
			fmt.Sprintf("you already have an appointment with this doctor on %s at %s", date, clockTime))
	}

	if err := s.repo.CreateAppointment(apt); err != nil {
		if schedErr, ok := err.(*types.ScheduleError); ok && schedErr.Type == types.ErrorTypeConflict {
			s.recordConflict(req.IsBookingForOther)
		} else {
			s.recordBooking("error", req.IsBookingForOther)
		}
		return nil, nil, err
	}

	s.notifier.NotifyNewAppointment(apt)

	s.recordBooking("booked", apt.IsBookingForOther)
	s.logger.Booking(apt.DoctorID, apt.Date.String(), apt.Time.String(), apt.IsBookingForOther, true,
		map[string]interface{}{"appointment_id": apt.ID})

	info := &types.BookingInfo{
		IsForOther:  apt.IsBookingForOther,
		PatientName: apt.PatientName,
		BookerName:  apt.BookerName,
	}
	return apt, info, nil
}

// BookAppointmentForOther books on behalf of someone else. It is the same
// pipeline with the proxy flag forced on.
func (s *Service) BookAppointmentForOther(req *types.BookingRequest) (*types.Appointment, *types.BookingInfo, error) {
	req.IsBookingForOther = true
	return s.BookAppointment(req)
}

// validateBookingRequest checks required fields and canonicalizes date and
// time.
func (s *Service) validateBookingRequest(req *types.BookingRequest) (types.CalendarDate, types.ClockTime, error) {
	if req.DoctorID == "" || req.Date == "" || req.Time == "" {
		return types.CalendarDate{}, types.ClockTime{}, types.NewValidationError(
			types.ErrCodeMissingFields, "doctorId, date and time are required")
	}

	date, err := types.ParseCalendarDate(req.Date)
	if err != nil {
		return types.CalendarDate{}, types.ClockTime{}, types.NewValidationError(
			types.ErrCodeInvalidDate, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date))
	}

	clockTime, err := types.ParseClockTime(req.Time)
	if err != nil {
		return types.CalendarDate{}, types.ClockTime{}, types.NewValidationError(
			types.ErrCodeInvalidTime, fmt.Sprintf("invalid time %q, expected HH:MM", req.Time))
	}

	if req.PatientAge < 1 || req.PatientAge > 120 {
		return types.CalendarDate{}, types.ClockTime{}, types.NewValidationError(
			types.ErrCodeInvalidAge, "patient age must be between 1 and 120")
	}

	if req.IsBookingForOther && req.PatientName == "" {
		return types.CalendarDate{}, types.ClockTime{}, types.NewValidationError(
			types.ErrCodePatientNameMissing, "patientName is required when booking for someone else")
	}

	return date, clockTime, nil
}

// buildAppointment resolves the booker and patient identities and assembles
// the record. For a self booking the patient mirrors the booking account;
// for a proxy booking they split.
func (s *Service) buildAppointment(req *types.BookingRequest, doctor *types.Doctor, date types.CalendarDate, clockTime types.ClockTime) *types.Appointment {
	bookerName := req.UserName
	bookerPhone := ""
	if req.UserID != "" {
		if acc, err := s.accounts.GetAccountByID(req.UserID); err == nil {
			if bookerName == "" {
				bookerName = acc.FirstName
			}
			bookerPhone = phone.Normalize(acc.Phone)
		}
	}
	if req.IsBookingForOther && req.BookerName != "" {
		bookerName = req.BookerName
	}

	patientName := req.PatientName
	patientPhone := phone.Normalize(req.PatientPhone)
	if !req.IsBookingForOther {
		if patientName == "" {
			patientName = bookerName
		}
		if patientPhone == "" {
			patientPhone = bookerPhone
		}
	}

	doctorName := req.DoctorName
	if doctorName == "" {
		doctorName = doctor.Name
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = types.DefaultDurationMinutes
	}

	now := s.now()
	return &types.Appointment{
		ID:                newID(),
		UserID:            req.UserID,
		DoctorID:          req.DoctorID,
		UserName:          req.UserName,
		DoctorName:        doctorName,
		Date:              date,
		Time:              clockTime,
		DurationMinutes:   duration,
		Reason:            req.Reason,
		PatientName:       patientName,
		PatientAge:        req.PatientAge,
		PatientPhone:      patientPhone,
		BookerName:        bookerName,
		BookerPhone:       bookerPhone,
		IsBookingForOther: req.IsBookingForOther,
		Kind:              types.KindNormal,
		Status:            types.StatusPending,
		Attendance:        types.AttendanceNotSet,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// CancelAppointment hard-deletes the appointment and tells the booking
// account. Notification failure never undoes the cancellation.
func (s *Service) CancelAppointment(id string) (*types.Appointment, error) {
	apt, err := s.repo.DeleteAppointment(id)
	if err != nil {
		return nil, err
	}

	s.notifier.CancelReminder(id)
	s.notifier.NotifyCancellation(apt)

	s.logger.WithAppointmentID(id).Info("Appointment cancelled")
	return apt, nil
}

// UpdateAppointment applies a partial update. Moving the appointment to a
// new date or time re-runs the vacation gate and the conflict check against
// the target slot.
func (s *Service) UpdateAppointment(id string, updates *types.AppointmentUpdates) (*types.Appointment, error) {
	existing, err := s.repo.GetAppointmentByID(id)
	if err != nil {
		return nil, err
	}

	if updates.Date != nil || updates.Time != nil {
		targetDate := existing.Date
		targetTime := existing.Time
		if updates.Date != nil {
			targetDate = *updates.Date
		}
		if updates.Time != nil {
			targetTime = *updates.Time
		}

		doctor, err := s.repo.GetDoctorByID(existing.DoctorID)
		if err != nil {
			return nil, err
		}
		if IsVacationDay(doctor, targetDate) {
			return nil, types.NewUnavailableDateError(types.ErrCodeVacationDay,
				fmt.Sprintf("doctor is on vacation on %s", targetDate))
		}

		conflict, err := s.repo.FindConflict(existing.UserID, existing.DoctorID, targetDate, targetTime)
		if err != nil {
			return nil, err
		}
		if conflict != nil && conflict.ID != id {
			return nil, types.NewConflictError(types.ErrCodeSlotTaken,
				fmt.Sprintf("slot %s %s is already booked", targetDate, targetTime))
		}
	}

	if updates.Attendance != nil && !validAttendance(*updates.Attendance) {
		return nil, types.NewValidationError(types.ErrCodeMissingFields,
			fmt.Sprintf("invalid attendance value %q", *updates.Attendance))
	}

	return s.repo.UpdateAppointment(id, updates)
}

// UpdateAttendance records whether the patient showed up. Marking present
// also stamps the attendance time; the repository owns the stamp.
func (s *Service) UpdateAttendance(id string, attendance types.Attendance) (*types.Appointment, error) {
	if !validAttendance(attendance) {
		return nil, types.NewValidationError(types.ErrCodeMissingFields,
			fmt.Sprintf("invalid attendance value %q", attendance))
	}

	return s.repo.UpdateAppointment(id, &types.AppointmentUpdates{Attendance: &attendance})
}

func validAttendance(a types.Attendance) bool {
	switch a {
	case types.AttendancePresent, types.AttendanceAbsent, types.AttendanceNotSet:
		return true
	}
	return false
}

// GetAppointmentDetails returns one appointment with its display block.
func (s *Service) GetAppointmentDetails(id string) (*types.EnrichedAppointment, error) {
	apt, err := s.repo.GetAppointmentByID(id)
	if err != nil {
		return nil, err
	}
	return enrich(apt), nil
}

// ListDoctorAppointments returns a doctor's appointments with duplicates
// collapsed at read time. When a group collides, the later-created record
// wins; the cleanup job makes the opposite choice because it trusts the
// first write, while the read path reflects the doctor's latest view.
func (s *Service) ListDoctorAppointments(doctorID string) ([]*types.EnrichedAppointment, error) {
	appointments, err := s.repo.GetDoctorAppointments(doctorID)
	if err != nil {
		return nil, err
	}

	latest := make(map[types.DedupKey]*types.Appointment)
	for _, apt := range appointments {
		key := types.DedupKeyOf(apt)
		if current, ok := latest[key]; !ok || apt.CreatedAt.After(current.CreatedAt) {
			latest[key] = apt
		}
	}

	out := make([]*types.EnrichedAppointment, 0, len(latest))
	for _, apt := range appointments {
		if latest[types.DedupKeyOf(apt)] == apt {
			out = append(out, enrich(apt))
		}
	}
	return out, nil
}

// ListUserAppointments returns a user's bookings ordered by date then time.
func (s *Service) ListUserAppointments(userID string) ([]*types.Appointment, error) {
	return s.repo.GetUserAppointments(userID)
}

// GetBookedSlots returns a doctor's appointments on one day. A vacation day
// reads as an empty list rather than an error so clients render a fully
// blocked day.
func (s *Service) GetBookedSlots(doctorID string, date types.CalendarDate) ([]*types.Appointment, error) {
	doctor, err := s.repo.GetDoctorByID(doctorID)
	if err != nil {
		return nil, err
	}

	if IsVacationDay(doctor, date) {
		return []*types.Appointment{}, nil
	}

	appointments, err := s.repo.GetDoctorAppointmentsForDate(doctorID, date)
	if err != nil {
		return nil, err
	}
	if appointments == nil {
		appointments = []*types.Appointment{}
	}
	return appointments, nil
}

// CleanDuplicates removes persisted duplicates, keeping the earliest record
// of each group. Safe to run repeatedly.
func (s *Service) CleanDuplicates() (int, error) {
	removed, err := s.repo.DeleteDuplicateAppointments()
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.RecordDuplicatesCleaned(removed)
	}
	s.logger.WithField("removed", removed).Info("Duplicate appointments cleaned")
	return removed, nil
}

// SetWorkSchedule replaces a doctor's work windows and vacation days as one
// unit. An empty window list clears the weekly schedule.
func (s *Service) SetWorkSchedule(doctorID string, workTimes []types.WorkWindow, vacationDays types.VacationDays) (*types.Doctor, error) {
	if err := ValidateWorkWindows(workTimes); err != nil {
		return nil, err
	}
	if err := ValidateVacationDays(vacationDays); err != nil {
		return nil, err
	}

	doctor, err := s.repo.UpdateDoctorSchedule(doctorID, workTimes, vacationDays)
	if err != nil {
		return nil, err
	}

	s.logger.WithDoctorID(doctorID).Info("Work schedule replaced")
	return doctor, nil
}

// SetWorkTimes replaces only the work windows, leaving vacation days alone.
func (s *Service) SetWorkTimes(doctorID string, workTimes []types.WorkWindow) (*types.Doctor, error) {
	if err := ValidateWorkWindows(workTimes); err != nil {
		return nil, err
	}

	doctor, err := s.repo.UpdateDoctorWorkTimes(doctorID, workTimes)
	if err != nil {
		return nil, err
	}

	s.logger.WithDoctorID(doctorID).Info("Work times replaced")
	return doctor, nil
}

// GetBookingStats summarizes a doctor's booking mix.
func (s *Service) GetBookingStats(doctorID string) (*types.BookingStats, error) {
	if _, err := s.repo.GetDoctorByID(doctorID); err != nil {
		return nil, err
	}
	return s.repo.CountAppointments(doctorID)
}

// CreateSpecialAppointment books a doctor-initiated appointment. The patient
// is keyed by normalized phone and may not have an account; when one exists
// the patient gets an immediate notification plus a reminder shortly before
// the start.
func (s *Service) CreateSpecialAppointment(req *types.SpecialAppointmentRequest) (*types.Appointment, error) {
	if req.DoctorID == "" || req.Date == "" || req.Time == "" || req.PatientName == "" {
		return nil, types.NewValidationError(types.ErrCodeMissingFields,
			"doctorId, date, time and patientName are required")
	}

	date, err := types.ParseCalendarDate(req.Date)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidDate,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date))
	}
	clockTime, err := types.ParseClockTime(req.Time)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidTime,
			fmt.Sprintf("invalid time %q, expected HH:MM", req.Time))
	}

	doctor, err := s.repo.GetDoctorByID(req.DoctorID)
	if err != nil {
		return nil, err
	}
	doctorName := req.DoctorName
	if doctorName == "" {
		doctorName = doctor.Name
	}

	patientPhone := phone.Normalize(req.PatientPhone)
	userID := ""
	if patientPhone != "" {
		if acc, err := s.accounts.GetAccountByPhone(patientPhone); err == nil {
			userID = acc.ID
		}
	}

	now := s.now()
	apt := &types.Appointment{
		ID:              newID(),
		UserID:          userID,
		DoctorID:        req.DoctorID,
		DoctorName:      doctorName,
		Date:            date,
		Time:            clockTime,
		DurationMinutes: types.DefaultDurationMinutes,
		Reason:          req.Reason,
		PatientName:     req.PatientName,
		PatientPhone:    patientPhone,
		Kind:            types.KindSpecial,
		Status:          types.StatusConfirmed,
		Attendance:      types.AttendanceNotSet,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateAppointment(apt); err != nil {
		return nil, err
	}

	s.notifier.NotifySpecialAppointment(apt)
	if apt.UserID != "" {
		lead := time.Duration(s.config.Notifications.ReminderLeadMinutes) * time.Minute
		s.notifier.ScheduleReminder(apt, lead)
	}

	s.logger.WithAppointmentID(apt.ID).WithField("doctor_id", apt.DoctorID).
		Info("Special appointment created")
	return apt, nil
}

// enrich attaches the display block to an appointment.
func enrich(apt *types.Appointment) *types.EnrichedAppointment {
	message := "Self booking"
	if apt.IsBookingForOther {
		message = fmt.Sprintf("Booked by %s for %s", apt.BookerName, apt.PatientName)
	}

	return &types.EnrichedAppointment{
		Appointment: *apt,
		DisplayInfo: types.DisplayInfo{
			PatientName:       apt.PatientName,
			PatientAge:        apt.PatientAge,
			PatientPhone:      apt.PatientPhone,
			BookerName:        apt.BookerName,
			IsBookingForOther: apt.IsBookingForOther,
			Message:           message,
		},
	}
}

func (s *Service) recordBooking(outcome string, forOther bool) {
	if s.metrics != nil {
		s.metrics.RecordBooking(outcome, forOther)
	}
}

func (s *Service) recordConflict(forOther bool) {
	s.recordBooking("conflict", forOther)
	if s.metrics != nil {
		s.metrics.RecordBookingConflict()
	}
}

// Start runs the HTTP server until Shutdown or failure.
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	var handler http.Handler = router
	if s.metrics != nil {
		handler = s.metrics.HTTPMiddleware(s.logger, router)
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.WithField("addr", addr).Info("Starting scheduling service")
	return s.server.ListenAndServe()
}

// Stop shuts the service down: HTTP server first, then pending reminders,
// then the database.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping scheduling service")

	var firstErr error
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}

	s.notifier.Stop()

	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
