package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/config"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/interfaces"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/logger"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/monitoring"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

// notificationStore persists notification records for in-app retrieval.
type notificationStore interface {
	InsertNotification(n *types.Notification) error
}

// RedisSink publishes notifications on per-recipient Redis channels. Clients
// subscribe to notifications:user:<id> or notifications:doctor:<id>.
type RedisSink struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisSink creates a Redis-backed notification sink.
func NewRedisSink(cfg *config.RedisConfig, log *logger.Logger) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	return &RedisSink{
		client: client,
		logger: log,
	}
}

// Notify publishes the notification to its recipient channel.
func (s *RedisSink) Notify(n *types.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	channel := "notifications:user:" + n.UserID
	if n.UserID == "" {
		channel = "notifications:doctor:" + n.DoctorID
	}

	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

var _ interfaces.NotificationSink = (*RedisSink)(nil)

// NotificationManager dispatches booking notifications. Every dispatch is
// best-effort: failures are logged and counted, never returned to the
// booking pipeline.
type NotificationManager struct {
	sink    interfaces.NotificationSink
	store   notificationStore
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	enabled bool

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewNotificationManager creates a notification manager.
func NewNotificationManager(sink interfaces.NotificationSink, store notificationStore, log *logger.Logger, metrics *monitoring.MetricsCollector, enabled bool) *NotificationManager {
	return &NotificationManager{
		sink:    sink,
		store:   store,
		logger:  log,
		metrics: metrics,
		enabled: enabled,
		timers:  make(map[string]*time.Timer),
	}
}

// NotifyNewAppointment tells the doctor a booking landed.
func (nm *NotificationManager) NotifyNewAppointment(apt *types.Appointment) {
	message := fmt.Sprintf("New appointment with %s on %s at %s",
		apt.PatientName, apt.Date, apt.Time)
	nm.dispatch(&types.Notification{
		DoctorID: apt.DoctorID,
		Kind:     types.NotifyNewAppointment,
		Message:  message,
	})
}

// NotifyCancellation tells the booking account its appointment is gone. The
// message carries the doctor name, date and time so the client can render it
// without another lookup.
func (nm *NotificationManager) NotifyCancellation(apt *types.Appointment) {
	if apt.UserID == "" {
		return
	}
	message := fmt.Sprintf("Your appointment with %s on %s at %s has been cancelled",
		apt.DoctorName, apt.Date, apt.Time)
	nm.dispatch(&types.Notification{
		UserID:  apt.UserID,
		Kind:    types.NotifyAppointmentCancelled,
		Message: message,
	})
}

// NotifySpecialAppointment tells the patient about a doctor-initiated
// appointment.
func (nm *NotificationManager) NotifySpecialAppointment(apt *types.Appointment) {
	if apt.UserID == "" {
		return
	}
	message := fmt.Sprintf("%s scheduled an appointment for you on %s at %s",
		apt.DoctorName, apt.Date, apt.Time)
	nm.dispatch(&types.Notification{
		UserID:  apt.UserID,
		Kind:    types.NotifySpecialAppointment,
		Message: message,
	})
}

// ScheduleReminder arms a one-shot reminder that fires lead before the
// appointment's local start. An appointment already inside the lead window
// gets the reminder right away instead of a timer.
func (nm *NotificationManager) ScheduleReminder(apt *types.Appointment, lead time.Duration) {
	fireAt := apt.Date.At(apt.Time, time.Local).Add(-lead)
	delay := time.Until(fireAt)

	userID := apt.UserID
	doctorName := apt.DoctorName
	clockTime := apt.Time.String()
	aptID := apt.ID

	if delay <= 0 {
		nm.dispatch(&types.Notification{
			UserID:  userID,
			Kind:    types.NotifySpecialAppointment,
			Message: fmt.Sprintf("Reminder: your appointment with %s starts at %s", doctorName, clockTime),
		})
		return
	}

	nm.mu.Lock()
	if existing, ok := nm.timers[aptID]; ok {
		existing.Stop()
	}
	nm.timers[aptID] = time.AfterFunc(delay, func() {
		nm.mu.Lock()
		delete(nm.timers, aptID)
		nm.mu.Unlock()

		nm.dispatch(&types.Notification{
			UserID:  userID,
			Kind:    types.NotifySpecialAppointment,
			Message: fmt.Sprintf("Reminder: your appointment with %s starts at %s", doctorName, clockTime),
		})
	})
	nm.mu.Unlock()
}

// CancelReminder disarms a pending reminder, if any.
func (nm *NotificationManager) CancelReminder(appointmentID string) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	if t, ok := nm.timers[appointmentID]; ok {
		t.Stop()
		delete(nm.timers, appointmentID)
	}
}

// Stop disarms all pending reminders.
func (nm *NotificationManager) Stop() {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	for id, t := range nm.timers {
		t.Stop()
		delete(nm.timers, id)
	}
}

// dispatch stores then publishes a notification. Either step failing is
// logged at warn level and swallowed.
func (nm *NotificationManager) dispatch(n *types.Notification) {
	if !nm.enabled {
		return
	}

	n.ID = newID()
	n.CreatedAt = time.Now()

	recipient := n.UserID
	if recipient == "" {
		recipient = n.DoctorID
	}

	delivered := true
	if nm.store != nil {
		if err := nm.store.InsertNotification(n); err != nil {
			nm.logger.WithError(err).Warn("Failed to store notification")
			delivered = false
		}
	}
	if nm.sink != nil {
		if err := nm.sink.Notify(n); err != nil {
			delivered = false
		}
	}

	nm.logger.Notification(n.Kind, recipient, delivered, map[string]interface{}{
		"message": n.Message,
	})
	if nm.metrics != nil {
		nm.metrics.RecordNotification(n.Kind, delivered)
	}
}
