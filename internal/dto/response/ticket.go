package response

import (
	"time"

	"cinema-ops/internal/data/entity"
)

type TicketResponse struct {
	ID            string     `json:"id"`
	ShowtimeID    string     `json:"showtime_id"`
	SeatID        string     `json:"seat_id"`
	Status        string     `json:"status"`
	OwnerID       *string    `json:"owner_id,omitempty"`
	Price         float64    `json:"price"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty"`
}

func TicketToResponse(ticket *entity.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:            ticket.ID.String(),
		ShowtimeID:    ticket.ShowtimeID.String(),
		SeatID:        ticket.SeatID.String(),
		Status:        string(ticket.Status),
		Price:         ticket.Price,
		ReservedUntil: ticket.ReservedUntil,
	}
	if ticket.OwnerID != nil {
		owner := ticket.OwnerID.String()
		resp.OwnerID = &owner
	}
	return resp
}

type PurchaseResponse struct {
	BookingID  string           `json:"booking_id"`
	OrderID    string           `json:"order_id"`
	ShowtimeID string           `json:"showtime_id"`
	TotalPrice float64          `json:"total_price"`
	Tickets    []TicketResponse `json:"tickets"`
}

type ReservationResponse struct {
	ShowtimeID    string           `json:"showtime_id"`
	ReservedUntil time.Time        `json:"reserved_until"`
	Tickets       []TicketResponse `json:"tickets"`
}

type CancellationResponse struct {
	Cancelled []TicketResponse `json:"cancelled"`
}

type FreeSeatCountResponse struct {
	ShowtimeID string `json:"showtime_id"`
	FreeSeats  int    `json:"free_seats"`
}
