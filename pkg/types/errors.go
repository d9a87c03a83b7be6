package types

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeUnavailableDate ErrorType = "unavailable_date"
	ErrorTypeDependency      ErrorType = "dependency"
	ErrorTypeStorage         ErrorType = "storage"
)

// ScheduleError represents a structured error in the scheduling system
type ScheduleError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *ScheduleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ScheduleError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string) *ScheduleError {
	return &ScheduleError{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *ScheduleError {
	return &ScheduleError{Type: ErrorTypeNotFound, Code: code, Message: message}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string) *ScheduleError {
	return &ScheduleError{Type: ErrorTypeConflict, Code: code, Message: message}
}

// NewUnavailableDateError creates a new vacation-day booking error
func NewUnavailableDateError(code, message string) *ScheduleError {
	return &ScheduleError{Type: ErrorTypeUnavailableDate, Code: code, Message: message}
}

// NewDependencyError creates a new downstream-dependency error. These are
// caught at the boundary, logged and swallowed; they never fail a booking.
func NewDependencyError(code, message string, cause error) *ScheduleError {
	return &ScheduleError{Type: ErrorTypeDependency, Code: code, Message: message, Cause: cause}
}

// NewStorageError creates a new persistence error
func NewStorageError(code, message string, cause error) *ScheduleError {
	return &ScheduleError{Type: ErrorTypeStorage, Code: code, Message: message, Cause: cause}
}

// Common error codes
const (
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeInvalidAge         = "INVALID_AGE"
	ErrCodeInvalidDate        = "INVALID_DATE"
	ErrCodeInvalidTime        = "INVALID_TIME"
	ErrCodePatientNameMissing = "PATIENT_NAME_REQUIRED"
	ErrCodeDoctorNotFound     = "DOCTOR_NOT_FOUND"
	ErrCodeDoctorNotApproved  = "DOCTOR_NOT_APPROVED"
	ErrCodeAppointmentMissing = "APPOINTMENT_NOT_FOUND"
	ErrCodeBookerNotFound     = "TRACKED_BOOKER_NOT_FOUND"
	ErrCodeSlotTaken          = "SLOT_ALREADY_BOOKED"
	ErrCodeVacationDay        = "VACATION_DAY"
	ErrCodeDuplicateWorkDay   = "DUPLICATE_WORK_DAY"
	ErrCodeIncompleteWindow   = "INCOMPLETE_WORK_WINDOW"
	ErrCodeInvalidVacation    = "INVALID_VACATION_DATA"
	ErrCodeNoMatchingBookings = "NO_MATCHING_BOOKINGS"
	ErrCodeNotificationFailed = "NOTIFICATION_FAILED"
	ErrCodeStorageFailure     = "STORAGE_FAILURE"
)
