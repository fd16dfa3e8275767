package adaptor

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinema-ops/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &usecase.NotFoundError{Resource: "showtime", ID: uuid.NewString()}, http.StatusNotFound},
		{"overlap", &usecase.OverlapError{ConflictingID: uuid.New()}, http.StatusConflict},
		{"seat conflict", &usecase.SeatConflictError{SeatID: uuid.New()}, http.StatusConflict},
		{"already paid", usecase.ErrAlreadyPaid, http.StatusConflict},
		{"stale version", fmt.Errorf("cancel ticket %s: %w", uuid.NewString(), usecase.ErrConcurrency), http.StatusConflict},
		{"illegal transition", &usecase.TransitionError{From: "booked", To: "reserved"}, http.StatusBadRequest},
		{"invalid amount", usecase.ErrInvalidAmount, http.StatusBadRequest},
		{"validation", &usecase.ValidationError{Fields: map[string]string{"seat_ids": "required"}}, http.StatusBadRequest},
		{"malformed id", &usecase.ParseError{Err: errors.New("invalid booking ID format nope")}, http.StatusBadRequest},
		{"wrapped malformed id", fmt.Errorf("load booking: %w", &usecase.ParseError{Err: errors.New("invalid booking ID format nope")}), http.StatusBadRequest},
		{"unexpected", errors.New("invalid byte sequence for encoding"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handleServiceError(recorder, zap.NewNop(), tc.err, "test operation")
			if recorder.Code != tc.want {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.want)
			}
		})
	}
}
