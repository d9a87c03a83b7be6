package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance
func New(level string) *Logger {
	log := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	// Set output format
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// Set output destination
	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// WithFields creates a new logger entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithField creates a new logger entry with a single field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError creates a new logger entry with an error field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithService creates a new logger entry with service name field
func (l *Logger) WithService(service string) *logrus.Entry {
	return l.Logger.WithField("service", service)
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithDoctorID creates a new logger entry with doctor ID field
func (l *Logger) WithDoctorID(doctorID string) *logrus.Entry {
	return l.Logger.WithField("doctor_id", doctorID)
}

// WithAppointmentID creates a new logger entry with appointment ID field
func (l *Logger) WithAppointmentID(aptID string) *logrus.Entry {
	return l.Logger.WithField("appointment_id", aptID)
}

// Booking logs booking pipeline events with structured format
func (l *Logger) Booking(doctorID, date, timeOfDay string, forOther bool, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"booking":   true,
		"doctor_id": doctorID,
		"date":      date,
		"time":      timeOfDay,
		"for_other": forOther,
		"success":   success,
		"details":   details,
	})

	if success {
		entry.Info("Booking event")
	} else {
		entry.Warn("Booking event failed")
	}
}

// Notification logs notification dispatch events; failures here are expected
// to be swallowed by callers, so they land at warn level, never error.
func (l *Logger) Notification(kind, recipientID string, delivered bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"notification": true,
		"kind":         kind,
		"recipient_id": recipientID,
		"delivered":    delivered,
		"details":      details,
	})

	if delivered {
		entry.Info("Notification dispatched")
	} else {
		entry.Warn("Notification dispatch failed")
	}
}

// HTTPRequest logs HTTP request events
func (l *Logger) HTTPRequest(method, path, clientIP string, statusCode int, durationMS int64) {
	entry := l.Logger.WithFields(logrus.Fields{
		"http_request": true,
		"method":       method,
		"path":         path,
		"client_ip":    clientIP,
		"status_code":  statusCode,
		"duration_ms":  durationMS,
	})

	if statusCode >= 400 {
		entry.Warn("HTTP request completed with error")
	} else {
		entry.Info("HTTP request completed")
	}
}
