package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

// setupRoutes configures HTTP routes for the scheduling service
func (s *Service) setupRoutes(router *mux.Router) {
	// Booking pipeline
	router.HandleFunc("/appointments", s.bookAppointmentHandler).Methods("POST")
	router.HandleFunc("/appointments-for-other", s.bookForOtherHandler).Methods("POST")
	router.HandleFunc("/appointment-details/{id}", s.appointmentDetailsHandler).Methods("GET")
	router.HandleFunc("/appointments/{id}", s.cancelAppointmentHandler).Methods("DELETE")
	router.HandleFunc("/appointments/{id}", s.updateAppointmentHandler).Methods("PUT")
	router.HandleFunc("/api/appointments/{id}/attendance", s.updateAttendanceHandler).Methods("PUT")

	// Listings
	router.HandleFunc("/doctor-appointments/{doctorId}", s.doctorAppointmentsHandler).Methods("GET")
	router.HandleFunc("/user-appointments/{userId}", s.userAppointmentsHandler).Methods("GET")
	router.HandleFunc("/appointments/{doctorId}/{date}", s.bookedSlotsHandler).Methods("GET")
	router.HandleFunc("/appointments-stats/{doctorId}", s.bookingStatsHandler).Methods("GET")

	// Availability
	router.HandleFunc("/doctor/{id}/work-schedule", s.setWorkScheduleHandler).Methods("PUT")
	router.HandleFunc("/doctor/{id}/work-times", s.setWorkTimesHandler).Methods("PUT")

	// Maintenance
	router.HandleFunc("/clean-duplicate-appointments", s.cleanDuplicatesHandler).Methods("POST")

	// Special appointments
	router.HandleFunc("/send-special-appointment-notification", s.specialAppointmentHandler).Methods("POST")

	// Tracked bookers
	router.HandleFunc("/api/doctors/{doctorId}/all-other-bookers", s.candidateBookersHandler).Methods("GET")
	router.HandleFunc("/api/doctors/{doctorId}/bookings-for-others", s.listTrackedBookersHandler).Methods("GET")
	router.HandleFunc("/api/doctors/{doctorId}/bookings-for-others", s.trackBookerHandler).Methods("POST")
	router.HandleFunc("/api/doctors/{doctorId}/bookings-for-others/{personId}", s.untrackBookerHandler).Methods("DELETE")

	// Operational
	router.HandleFunc("/api/v1/health", s.healthCheckHandler).Methods("GET")
	if s.metrics != nil {
		router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	s.logger.Info("Scheduling service routes configured")
}

// bookAppointmentHandler handles self and proxy bookings.
func (s *Service) bookAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var req types.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		req.UserID = s.getUserIDFromRequest(r)
	}

	apt, info, err := s.BookAppointment(&req)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message":     "appointment booked",
		"appointment": apt,
		"bookingInfo": info,
	})
}

// bookForOtherHandler handles the dedicated booking-for-other endpoint.
func (s *Service) bookForOtherHandler(w http.ResponseWriter, r *http.Request) {
	var req types.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		req.UserID = s.getUserIDFromRequest(r)
	}

	apt, info, err := s.BookAppointmentForOther(&req)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message":     "appointment booked",
		"appointment": apt,
		"bookingInfo": info,
	})
}

// appointmentDetailsHandler returns one appointment with its display block.
func (s *Service) appointmentDetailsHandler(w http.ResponseWriter, r *http.Request) {
	apt, err := s.GetAppointmentDetails(mux.Vars(r)["id"])
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, apt)
}

// cancelAppointmentHandler hard-deletes an appointment.
func (s *Service) cancelAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	apt, err := s.CancelAppointment(mux.Vars(r)["id"])
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message":              "appointment cancelled",
		"cancelledAppointment": apt,
	})
}

// updateAppointmentHandler applies a partial update.
func (s *Service) updateAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var updates types.AppointmentUpdates
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	apt, err := s.UpdateAppointment(mux.Vars(r)["id"], &updates)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "appointment updated",
		"appointment": apt,
	})
}

// updateAttendanceHandler records whether the patient showed up.
func (s *Service) updateAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Attendance types.Attendance `json:"attendance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	apt, err := s.UpdateAttendance(mux.Vars(r)["id"], req.Attendance)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "attendance updated",
		"appointment": apt,
	})
}

// doctorAppointmentsHandler lists a doctor's appointments with duplicates
// collapsed.
func (s *Service) doctorAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	appointments, err := s.ListDoctorAppointments(mux.Vars(r)["doctorId"])
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, appointments)
}

// userAppointmentsHandler lists a user's bookings.
func (s *Service) userAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	appointments, err := s.ListUserAppointments(mux.Vars(r)["userId"])
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	if appointments == nil {
		appointments = []*types.Appointment{}
	}
	s.writeJSONResponse(w, http.StatusOK, appointments)
}

// bookedSlotsHandler lists a doctor's appointments on one calendar day.
func (s *Service) bookedSlotsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	date, err := types.ParseCalendarDate(vars["date"])
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	appointments, err := s.GetBookedSlots(vars["doctorId"], date)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, appointments)
}

// bookingStatsHandler summarizes a doctor's booking mix.
func (s *Service) bookingStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.GetBookingStats(mux.Vars(r)["doctorId"])
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, stats)
}

// setWorkScheduleHandler replaces work windows and vacation days together.
func (s *Service) setWorkScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkTimes    []types.WorkWindow `json:"workTimes"`
		VacationDays types.VacationDays `json:"vacationDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doctor, err := s.SetWorkSchedule(mux.Vars(r)["id"], req.WorkTimes, req.VacationDays)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message":      "work schedule updated",
		"workTimes":    doctor.WorkTimes,
		"vacationDays": doctor.VacationDays,
	})
}

// setWorkTimesHandler replaces only the work windows.
func (s *Service) setWorkTimesHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkTimes []types.WorkWindow `json:"workTimes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doctor, err := s.SetWorkTimes(mux.Vars(r)["id"], req.WorkTimes)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, doctor)
}

// cleanDuplicatesHandler triggers the duplicate cleanup pass.
func (s *Service) cleanDuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := s.CleanDuplicates()
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"duplicatesDeleted": removed,
		"message":           "duplicate appointments cleaned",
	})
}

// specialAppointmentHandler books a doctor-initiated special appointment.
func (s *Service) specialAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var req types.SpecialAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	apt, err := s.CreateSpecialAppointment(&req)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message":     "special appointment created",
		"appointment": apt,
	})
}

// candidateBookersHandler lists candidate proxy bookers, busiest first.
func (s *Service) candidateBookersHandler(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.ListCandidateBookers(mux.Vars(r)["doctorId"])
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	if candidates == nil {
		candidates = []*types.CandidateBooker{}
	}
	s.writeJSONResponse(w, http.StatusOK, candidates)
}

// listTrackedBookersHandler lists tracked bookers with their history.
func (s *Service) listTrackedBookersHandler(w http.ResponseWriter, r *http.Request) {
	tracked, err := s.ListTrackedBookers(mux.Vars(r)["doctorId"])
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, tracked)
}

// trackBookerHandler opts the doctor in to tracking a booker.
func (s *Service) trackBookerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookerPhone string `json:"bookerPhone"`
		BookerName  string `json:"bookerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tb, err := s.TrackBooker(mux.Vars(r)["doctorId"], req.BookerPhone, req.BookerName)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message":       "booker tracked",
		"trackedBooker": tb,
	})
}

// untrackBookerHandler soft-deletes a tracking record.
func (s *Service) untrackBookerHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tb, err := s.UntrackBooker(vars["doctorId"], vars["personId"])
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message":       "booker untracked",
		"removedBooker": tb,
	})
}

// healthCheckHandler handles health check requests
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if s.db != nil {
		if err := s.db.Health(); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	s.writeJSONResponse(w, code, map[string]interface{}{
		"status":    status,
		"service":   "scheduling",
		"timestamp": time.Now().UTC(),
	})
}

// getUserIDFromRequest extracts the authenticated user from the gateway
// header.
func (s *Service) getUserIDFromRequest(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes a flat error response.
func (s *Service) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, map[string]interface{}{"error": message})
}

// writeScheduleError maps a domain error to its HTTP status. Unknown errors
// read as internal failures without leaking their cause.
func (s *Service) writeScheduleError(w http.ResponseWriter, err error) {
	var schedErr *types.ScheduleError
	if !errors.As(err, &schedErr) {
		s.logger.WithError(err).Error("Unclassified error")
		s.writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch schedErr.Type {
	case types.ErrorTypeValidation, types.ErrorTypeUnavailableDate:
		status = http.StatusBadRequest
	case types.ErrorTypeNotFound:
		status = http.StatusNotFound
	case types.ErrorTypeConflict:
		status = http.StatusConflict
	case types.ErrorTypeDependency:
		status = http.StatusBadGateway
	case types.ErrorTypeStorage:
		status = http.StatusInternalServerError
		s.logger.WithError(schedErr).Error("Storage failure")
	}

	s.writeJSONResponse(w, status, map[string]interface{}{
		"error": schedErr.Message,
		"code":  schedErr.Code,
	})
}
