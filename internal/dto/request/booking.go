package request

type PayBookingRequest struct {
	Amount float64 `json:"amount" validate:"required"`
}
