package request

type BuyTicketsRequest struct {
	SeatIDs []string `json:"seat_ids" validate:"required,min=1,dive,uuid"`
	BuyerID *string  `json:"buyer_id,omitempty" validate:"omitempty,uuid"`
}

type ReserveTicketsRequest struct {
	SeatIDs     []string `json:"seat_ids" validate:"required,min=1,dive,uuid"`
	BuyerID     *string  `json:"buyer_id,omitempty" validate:"omitempty,uuid"`
	HoldMinutes int      `json:"hold_minutes" validate:"omitempty,min=1,max=120"`
}

type CancelTicketsRequest struct {
	TicketIDs []string `json:"ticket_ids" validate:"required,min=1,dive,uuid"`
}

type UpdateTicketStatusRequest struct {
	Status       string  `json:"status" validate:"required,oneof=free reserved booked"`
	ActingUserID *string `json:"acting_user_id,omitempty" validate:"omitempty,uuid"`
}
