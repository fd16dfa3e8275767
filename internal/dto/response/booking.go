package response

import (
	"time"

	"cinema-ops/internal/data/entity"
)

type BookingResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	ShowtimeID string    `json:"showtime_id"`
	CustomerID *string   `json:"customer_id,omitempty"`
	TotalSeats int       `json:"total_seats"`
	TotalPrice float64   `json:"total_price"`
	Paid       bool      `json:"paid"`
	AmountPaid float64   `json:"amount_paid"`
	CreatedAt  time.Time `json:"created_at"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:         booking.ID.String(),
		OrderID:    booking.OrderID,
		ShowtimeID: booking.ShowtimeID.String(),
		TotalSeats: booking.TotalSeats,
		TotalPrice: booking.TotalPrice,
		Paid:       booking.Paid,
		AmountPaid: booking.AmountPaid,
		CreatedAt:  booking.CreatedAt,
	}
	if booking.CustomerID != nil {
		customer := booking.CustomerID.String()
		resp.CustomerID = &customer
	}
	return resp
}
