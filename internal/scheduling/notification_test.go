package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/logger"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

func setupTestNotifier() (*NotificationManager, *MemoryRepository, *MockNotificationSink) {
	repo := NewMemoryRepository()
	sink := &MockNotificationSink{}
	nm := NewNotificationManager(sink, repo, logger.New("error"), nil, true)
	return nm, repo, sink
}

func reminderAppointment(date, timeOfDay string) *types.Appointment {
	d, _ := types.ParseCalendarDate(date)
	c, _ := types.ParseClockTime(timeOfDay)
	return &types.Appointment{
		ID:         "apt-1",
		UserID:     "user-1",
		DoctorID:   "doctor-1",
		DoctorName: "Dr. Ali Hassan",
		Date:       d,
		Time:       c,
	}
}

func TestNotifyNewAppointment_StoresAndPublishes(t *testing.T) {
	nm, repo, sink := setupTestNotifier()
	sink.On("Notify", mock.AnythingOfType("*types.Notification")).Return(nil)

	apt := reminderAppointment("2026-09-14", "10:30")
	apt.PatientName = "Zainab"
	nm.NotifyNewAppointment(apt)

	stored := repo.Notifications()
	require.Len(t, stored, 1)
	assert.Equal(t, types.NotifyNewAppointment, stored[0].Kind)
	assert.Equal(t, "doctor-1", stored[0].DoctorID)
	assert.Contains(t, stored[0].Message, "Zainab")
	sink.AssertExpectations(t)
}

func TestDispatch_SinkFailureStillStores(t *testing.T) {
	nm, repo, sink := setupTestNotifier()
	sink.On("Notify", mock.Anything).Return(errors.New("broker down"))

	nm.NotifyNewAppointment(reminderAppointment("2026-09-14", "10:30"))

	// The record lands even when the live channel is down.
	assert.Len(t, repo.Notifications(), 1)
}

func TestDispatch_DisabledManagerIsSilent(t *testing.T) {
	repo := NewMemoryRepository()
	sink := &MockNotificationSink{}
	nm := NewNotificationManager(sink, repo, logger.New("error"), nil, false)

	nm.NotifyNewAppointment(reminderAppointment("2026-09-14", "10:30"))

	assert.Empty(t, repo.Notifications())
	sink.AssertNotCalled(t, "Notify", mock.Anything)
}

func TestNotifyCancellation_SkipsAnonymousBookings(t *testing.T) {
	nm, repo, sink := setupTestNotifier()

	apt := reminderAppointment("2026-09-14", "10:30")
	apt.UserID = ""
	nm.NotifyCancellation(apt)

	assert.Empty(t, repo.Notifications())
	sink.AssertNotCalled(t, "Notify", mock.Anything)
}

func TestScheduleReminder_ArmsFutureAppointments(t *testing.T) {
	nm, _, sink := setupTestNotifier()
	defer nm.Stop()

	future := time.Now().Add(48 * time.Hour)
	apt := reminderAppointment(
		types.DateOf(future).String(),
		types.ClockTime{Hour: future.Hour(), Minute: 0}.String(),
	)
	nm.ScheduleReminder(apt, 5*time.Minute)

	nm.mu.Lock()
	armed := len(nm.timers)
	nm.mu.Unlock()
	assert.Equal(t, 1, armed)
	sink.AssertNotCalled(t, "Notify", mock.Anything)
}

func TestScheduleReminder_InsideLeadWindowFiresNow(t *testing.T) {
	nm, repo, sink := setupTestNotifier()
	defer nm.Stop()
	sink.On("Notify", mock.Anything).Return(nil)

	// The slot is already closer than the lead, so the reminder goes out
	// immediately instead of being dropped.
	inside := reminderAppointment("2020-01-01", "10:00")
	inside.ID = "apt-inside"
	nm.ScheduleReminder(inside, 5*time.Minute)

	nm.mu.Lock()
	armed := len(nm.timers)
	nm.mu.Unlock()
	assert.Equal(t, 0, armed)

	stored := repo.Notifications()
	require.Len(t, stored, 1)
	assert.Contains(t, stored[0].Message, "Reminder")
	sink.AssertCalled(t, "Notify", mock.Anything)
}

func TestCancelReminder_Disarms(t *testing.T) {
	nm, _, _ := setupTestNotifier()
	defer nm.Stop()

	future := time.Now().Add(48 * time.Hour)
	apt := reminderAppointment(
		types.DateOf(future).String(),
		types.ClockTime{Hour: future.Hour(), Minute: 0}.String(),
	)
	nm.ScheduleReminder(apt, 5*time.Minute)
	nm.CancelReminder(apt.ID)

	nm.mu.Lock()
	armed := len(nm.timers)
	nm.mu.Unlock()
	assert.Equal(t, 0, armed)
}

func TestReminderFires(t *testing.T) {
	nm, repo, sink := setupTestNotifier()
	defer nm.Stop()

	done := make(chan struct{})
	sink.On("Notify", mock.Anything).Run(func(args mock.Arguments) {
		close(done)
	}).Return(nil)

	// Clock times have minute precision, so pick a slot two minutes out and
	// a lead that puts the fire instant a fraction of a second away.
	slot := time.Now().Truncate(time.Minute).Add(2 * time.Minute)
	lead := time.Until(slot) - 100*time.Millisecond

	apt := reminderAppointment(
		types.DateOf(slot).String(),
		types.ClockTime{Hour: slot.Hour(), Minute: slot.Minute()}.String(),
	)
	nm.ScheduleReminder(apt, lead)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reminder did not fire")
	}

	stored := repo.Notifications()
	require.Len(t, stored, 1)
	assert.Contains(t, stored[0].Message, "Reminder")
}
