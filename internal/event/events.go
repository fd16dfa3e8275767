// Package event defines the domain events committed state changes produce
// and the machinery that carries them to the broker.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"cinema-ops/internal/data/entity"

	"github.com/google/uuid"
)

const (
	TypeShowCreated        = "show.created"
	TypeTicketSold         = "ticket.sold"
	TypeTicketCancelled    = "ticket.cancelled"
	TypeCustomerRegistered = "customer.registered"
	TypePaymentConfirmed   = "payment.confirmed"
)

// Envelope is the wire format on the bus. The ID doubles as the
// idempotency key consumers deduplicate on: one logical state change
// produces exactly one envelope, however many times it is delivered.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// ShowCreated carries enough data for a projection to register the show
// without re-reading primary storage.
type ShowCreated struct {
	ShowtimeID   uuid.UUID `json:"showtime_id"`
	FilmID       uuid.UUID `json:"film_id"`
	FilmTitle    string    `json:"film_title"`
	AuditoriumID uuid.UUID `json:"auditorium_id"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	SeatCount    int       `json:"seat_count"`
}

type TicketSold struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ShowtimeID uuid.UUID `json:"showtime_id"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"total_price"`
}

type TicketCancelled struct {
	ShowtimeID uuid.UUID   `json:"showtime_id"`
	TicketIDs  []uuid.UUID `json:"ticket_ids"`
	Quantity   int         `json:"quantity"`
	TotalPrice float64     `json:"total_price"`
}

// PaymentConfirmed is distinct from TicketSold on purpose: sales counters
// increment on TicketSold only, so confirming a payment never double-counts
// revenue in the projection.
type PaymentConfirmed struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ShowtimeID uuid.UUID `json:"showtime_id"`
	Amount     float64   `json:"amount"`
}

type CustomerRegistered struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
}

// NewOutboxEvent wraps a payload into an outbox row ready to be persisted
// in the same transaction as the state change it describes.
func NewOutboxEvent(eventType string, payload any) (*entity.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &entity.OutboxEvent{
		ID:         uuid.New(),
		EventType:  eventType,
		Payload:    body,
		OccurredAt: time.Now(),
	}, nil
}

// EnvelopeFromOutbox converts a stored outbox row back into the wire format.
func EnvelopeFromOutbox(row *entity.OutboxEvent) Envelope {
	return Envelope{
		ID:         row.ID,
		Type:       row.EventType,
		OccurredAt: row.OccurredAt,
		Payload:    row.Payload,
	}
}
