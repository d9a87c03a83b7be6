package scheduling

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/database"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/logger"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

func setupTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	repo := NewRepository(&database.DB{DB: mockDB}, logger.New("error"))
	return repo, mock
}

func testAppointment() *types.Appointment {
	date, _ := types.ParseCalendarDate("2026-09-14")
	clockTime, _ := types.ParseClockTime("10:30")
	now := time.Now()
	return &types.Appointment{
		ID:              "apt-1",
		UserID:          "user-1",
		DoctorID:        "doctor-1",
		UserName:        "Zainab",
		DoctorName:      "Dr. Ali Hassan",
		Date:            date,
		Time:            clockTime,
		DurationMinutes: 30,
		PatientName:     "Zainab",
		PatientPhone:    "+9647701234567",
		Kind:            types.KindNormal,
		Status:          types.StatusPending,
		Attendance:      types.AttendanceNotSet,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestRepositoryCreateAppointment(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateAppointment(testAppointment())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateAppointment_UniqueViolationIsConflict(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_appointments_slot"})

	err := repo.CreateAppointment(testAppointment())

	var schedErr *types.ScheduleError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, types.ErrorTypeConflict, schedErr.Type)
	assert.Equal(t, types.ErrCodeSlotTaken, schedErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetAppointmentByID(t *testing.T) {
	repo, mock := setupTestRepository(t)
	now := time.Now()

	columns := []string{
		"id", "user_id", "doctor_id", "user_name", "doctor_name", "date", "time",
		"duration_minutes", "reason", "patient_name", "patient_age", "patient_phone",
		"booker_name", "booker_phone", "is_booking_for_other", "kind", "status",
		"attendance", "attendance_time", "created_at", "updated_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"apt-1", "user-1", "doctor-1", "Zainab", "Dr. Ali Hassan",
			"2026-09-14", "10:30", 30, "", "Zainab", 0, "+9647701234567",
			"Zainab", "+9647701234567", false, "normal", "pending",
			"not_set", nil, now, now,
		))

	apt, err := repo.GetAppointmentByID("apt-1")

	require.NoError(t, err)
	assert.Equal(t, "apt-1", apt.ID)
	assert.Equal(t, "2026-09-14", apt.Date.String())
	assert.Equal(t, "10:30", apt.Time.String())
	assert.Nil(t, apt.AttendanceTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetAppointmentByID_NotFound(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetAppointmentByID("missing")

	var schedErr *types.ScheduleError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, types.ErrCodeAppointmentMissing, schedErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetAppointmentByID_DriverErrorIsStorageFailure(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.GetAppointmentByID("apt-1")

	var schedErr *types.ScheduleError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, types.ErrorTypeStorage, schedErr.Type)
	assert.Equal(t, types.ErrCodeStorageFailure, schedErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCountAppointments_DriverErrorIsStorageFailure(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectQuery("FROM appointments WHERE doctor_id").
		WithArgs("doctor-1").
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.CountAppointments("doctor-1")

	var schedErr *types.ScheduleError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, types.ErrorTypeStorage, schedErr.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteDuplicateAppointments(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectExec("DELETE FROM appointments a USING appointments b").
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := repo.DeleteDuplicateAppointments()

	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetDoctorByID_ParsesScheduleDocuments(t *testing.T) {
	repo, mock := setupTestRepository(t)
	now := time.Now()

	workTimes := `[{"day":"sunday","from":"09:00","to":"13:00"}]`
	// One current entry, one legacy wrapped entry, one malformed entry.
	vacationDays := `["2026-10-01", {"date": "2026-10-02"}, {"oops": true}]`

	columns := []string{
		"id", "name", "specialty", "phone", "status",
		"work_times", "vacation_days", "created_at", "updated_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM doctors WHERE id").
		WithArgs("doctor-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"doctor-1", "Dr. Ali Hassan", "cardiology", "+9647700000000",
			"approved", []byte(workTimes), []byte(vacationDays), now, now,
		))

	doctor, err := repo.GetDoctorByID("doctor-1")

	require.NoError(t, err)
	require.Len(t, doctor.WorkTimes, 1)
	assert.Equal(t, "sunday", doctor.WorkTimes[0].Day)

	require.Len(t, doctor.VacationDays, 3)
	assert.True(t, doctor.VacationDays[0].Valid)
	assert.Equal(t, "2026-10-01", doctor.VacationDays[0].Date.String())
	assert.True(t, doctor.VacationDays[1].Valid)
	assert.Equal(t, "2026-10-02", doctor.VacationDays[1].Date.String())
	assert.False(t, doctor.VacationDays[2].Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateAppointment_NoFields(t *testing.T) {
	repo, _ := setupTestRepository(t)

	_, err := repo.UpdateAppointment("apt-1", &types.AppointmentUpdates{})

	var schedErr *types.ScheduleError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, types.ErrorTypeValidation, schedErr.Type)
}
