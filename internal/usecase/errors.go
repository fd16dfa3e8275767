package usecase

import (
	"errors"
	"fmt"

	"cinema-ops/pkg/utils"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyPaid rejects a second payment for the same booking.
	ErrAlreadyPaid = errors.New("booking already paid")
	// ErrInvalidAmount rejects non-positive payment amounts.
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrConcurrency means a version token moved at commit time; the
	// caller may retry with fresh state.
	ErrConcurrency = errors.New("concurrent modification detected")
)

// NotFoundError identifies the missing resource for the 404 mapping.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// OverlapError reports a scheduling conflict, carrying the showtime that
// already occupies the interval so the caller can reschedule around it.
type OverlapError struct {
	ConflictingID uuid.UUID
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("showtime overlaps with existing showtime %s", e.ConflictingID.String())
}

// SeatConflictError reports a seat claimed by someone else. The whole
// purchase fails; no seat in the request is booked.
type SeatConflictError struct {
	SeatID uuid.UUID
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %s is no longer available", e.SeatID.String())
}

// TransitionError rejects an illegal ticket status change.
type TransitionError struct {
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("ticket transition %s -> %s is not allowed", e.From, e.To)
}

// ParseError marks malformed identifiers and timestamps rejected before
// any transaction opens.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(format string, args ...any) error {
	return &ParseError{Err: fmt.Errorf(format, args...)}
}

// ValidationError reports malformed input caught before any transaction opens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + utils.FormatValidationErrors(e.Fields)
}
