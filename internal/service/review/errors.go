package review

import (
	"errors"
	"fmt"
	"time"
)

// Common error types for the review service
var (
	// ErrCardNotFound indicates that the card does not exist. It is also
	// returned when the card belongs to another account.
	ErrCardNotFound = errors.New("card not found")

	// ErrDailyLimitExceeded indicates that the account has used its daily
	// review budget. Returned errors are *DailyLimitError values that match it.
	ErrDailyLimitExceeded = errors.New("daily review limit exceeded")
)

// DailyLimitError reports a rejected review of a card not yet reviewed today.
type DailyLimitError struct {
	// Limit is the configured number of distinct cards per UTC day.
	Limit int
	// ResetsAt is the next UTC midnight, when the budget becomes available again.
	ResetsAt time.Time
}

// Error implements the error interface for DailyLimitError.
func (e *DailyLimitError) Error() string {
	return fmt.Sprintf(
		"daily review limit of %d cards reached; reviews resume after the next UTC midnight (%s)",
		e.Limit,
		e.ResetsAt.UTC().Format(time.RFC3339),
	)
}

// Is makes errors.Is(err, ErrDailyLimitExceeded) match every DailyLimitError.
func (e *DailyLimitError) Is(target error) bool {
	return target == ErrDailyLimitExceeded
}

// ServiceError wraps errors from the review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review", "get_due_cards")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewSubmitReviewError returns a new ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "submit_review", Message: message, Err: err}
}

// NewGetDueCardsError returns a new ServiceError for the get_due_cards operation.
func NewGetDueCardsError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "get_due_cards", Message: message, Err: err}
}

// NewGetCardError returns a new ServiceError for the get_card operation.
func NewGetCardError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "get_card", Message: message, Err: err}
}

// NewGetStatsError returns a new ServiceError for the get_stats operation.
func NewGetStatsError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "get_stats", Message: message, Err: err}
}
