package scheduling

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

func setupTestRouter(t *testing.T) (*mux.Router, *MemoryRepository, *MockNotificationSink) {
	service, repo, sink := setupTestService()
	router := mux.NewRouter()
	service.setupRoutes(router)
	return router, repo, sink
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBookAppointmentHandler_Created(t *testing.T) {
	router, repo, sink := setupTestRouter(t)
	seedDoctor(repo)
	sink.On("Notify", mock.Anything).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/appointments", bookingRequest())

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Appointment types.Appointment  `json:"appointment"`
		BookingInfo *types.BookingInfo `json:"bookingInfo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doctor-1", resp.Appointment.DoctorID)
	assert.NotNil(t, resp.BookingInfo)
	assert.False(t, resp.BookingInfo.IsForOther)
}

func TestBookAppointmentHandler_ValidationError(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)

	req := bookingRequest()
	req.Date = ""
	rec := doJSON(t, router, http.MethodPost, "/appointments", req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
	assert.Equal(t, types.ErrCodeMissingFields, resp["code"])
}

func TestBookAppointmentHandler_Conflict(t *testing.T) {
	router, repo, sink := setupTestRouter(t)
	seedDoctor(repo)
	sink.On("Notify", mock.Anything).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/appointments", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/appointments", bookingRequest())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookAppointmentHandler_VacationDay(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo, "2026-09-14")

	rec := doJSON(t, router, http.MethodPost, "/appointments", bookingRequest())

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.ErrCodeVacationDay, resp["code"])
}

func TestBookForOtherHandler_RequiresPatientName(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)

	rec := doJSON(t, router, http.MethodPost, "/appointments-for-other", bookingRequest())

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.ErrCodePatientNameMissing, resp["code"])
}

func TestBookedSlotsHandler_VacationDayEmptyList(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo, "2026-09-14")

	rec := doJSON(t, router, http.MethodGet, "/appointments/doctor-1/2026-09-14", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestBookedSlotsHandler_InvalidDate(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)

	rec := doJSON(t, router, http.MethodGet, "/appointments/doctor-1/14-09-2026", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAppointmentHandler_NotFound(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)

	rec := doJSON(t, router, http.MethodDelete, "/appointments/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAttendanceHandler(t *testing.T) {
	router, repo, sink := setupTestRouter(t)
	seedDoctor(repo)
	sink.On("Notify", mock.Anything).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/appointments", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Appointment types.Appointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPut,
		"/api/appointments/"+created.Appointment.ID+"/attendance",
		map[string]string{"attendance": "present"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success     bool              `json:"success"`
		Appointment types.Appointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, types.AttendancePresent, resp.Appointment.Attendance)
	assert.NotNil(t, resp.Appointment.AttendanceTime)
}

func TestUpdateAppointmentHandler_Envelope(t *testing.T) {
	router, repo, sink := setupTestRouter(t)
	seedDoctor(repo)
	sink.On("Notify", mock.Anything).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/appointments", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Appointment types.Appointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPut, "/appointments/"+created.Appointment.ID,
		map[string]string{"reason": "follow-up"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success     bool              `json:"success"`
		Message     string            `json:"message"`
		Appointment types.Appointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, "follow-up", resp.Appointment.Reason)
}

func TestCancelAppointmentHandler_Envelope(t *testing.T) {
	router, repo, sink := setupTestRouter(t)
	seedDoctor(repo)
	sink.On("Notify", mock.Anything).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/appointments", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Appointment types.Appointment `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodDelete, "/appointments/"+created.Appointment.ID, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message              string             `json:"message"`
		CancelledAppointment *types.Appointment `json:"cancelledAppointment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
	require.NotNil(t, resp.CancelledAppointment)
	assert.Equal(t, created.Appointment.ID, resp.CancelledAppointment.ID)
}

func TestWorkScheduleHandler_DuplicateDay(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)

	rec := doJSON(t, router, http.MethodPut, "/doctor/doctor-1/work-schedule",
		map[string]interface{}{
			"workTimes": []map[string]string{
				{"day": "monday", "from": "09:00", "to": "13:00"},
				{"day": "monday", "from": "14:00", "to": "18:00"},
			},
		})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.ErrCodeDuplicateWorkDay, resp["code"])
}

func TestWorkScheduleHandler_Envelope(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)

	rec := doJSON(t, router, http.MethodPut, "/doctor/doctor-1/work-schedule",
		map[string]interface{}{
			"workTimes": []map[string]string{
				{"day": "monday", "from": "09:00", "to": "13:00"},
			},
			"vacationDays": []string{"2026-10-01"},
		})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message      string             `json:"message"`
		WorkTimes    []types.WorkWindow `json:"workTimes"`
		VacationDays types.VacationDays `json:"vacationDays"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
	require.Len(t, resp.WorkTimes, 1)
	assert.Equal(t, "monday", resp.WorkTimes[0].Day)
	require.Len(t, resp.VacationDays, 1)
	assert.Equal(t, "2026-10-01", resp.VacationDays[0].Date.String())
}

func TestTrackBookerHandler_NoMatchingBookings(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)

	rec := doJSON(t, router, http.MethodPost, "/api/doctors/doctor-1/bookings-for-others",
		map[string]string{"bookerPhone": "07701234567", "bookerName": "Zainab"})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.ErrCodeNoMatchingBookings, resp["code"])
}

func TestTrackBookerHandler_Created(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)
	seedProxyBooking(repo, "b1", "07701234567", "Zainab", "Abu Kareem", time.Now())

	rec := doJSON(t, router, http.MethodPost, "/api/doctors/doctor-1/bookings-for-others",
		map[string]string{"bookerPhone": "07701234567", "bookerName": "Zainab"})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message       string               `json:"message"`
		TrackedBooker *types.TrackedBooker `json:"trackedBooker"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
	require.NotNil(t, resp.TrackedBooker)
	assert.Equal(t, "+9647701234567", resp.TrackedBooker.BookerPhone)
}

func TestUntrackBookerHandler_Envelope(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)
	seedProxyBooking(repo, "b1", "07701234567", "Zainab", "Abu Kareem", time.Now())

	rec := doJSON(t, router, http.MethodPost, "/api/doctors/doctor-1/bookings-for-others",
		map[string]string{"bookerPhone": "07701234567", "bookerName": "Zainab"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		TrackedBooker *types.TrackedBooker `json:"trackedBooker"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.TrackedBooker)

	rec = doJSON(t, router, http.MethodDelete,
		"/api/doctors/doctor-1/bookings-for-others/"+created.TrackedBooker.ID, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message       string               `json:"message"`
		RemovedBooker *types.TrackedBooker `json:"removedBooker"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.RemovedBooker)
	assert.Equal(t, created.TrackedBooker.ID, resp.RemovedBooker.ID)
	assert.False(t, resp.RemovedBooker.IsActive)
}

func TestCleanDuplicatesHandler(t *testing.T) {
	router, repo, _ := setupTestRouter(t)
	seedDoctor(repo)

	rec := doJSON(t, router, http.MethodPost, "/clean-duplicate-appointments", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success           bool `json:"success"`
		DuplicatesDeleted int  `json:"duplicatesDeleted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.DuplicatesDeleted)
}

func TestHealthCheckHandler(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
