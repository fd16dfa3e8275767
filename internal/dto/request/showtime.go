package request

type CreateShowtimeRequest struct {
	FilmID       string `json:"film_id" validate:"required,uuid"`
	AuditoriumID string `json:"auditorium_id" validate:"required,uuid"`
	StartsAt     string `json:"starts_at" validate:"required"` // RFC 3339
}

// UpdateShowtimeRequest leaves unspecified fields at their current values.
type UpdateShowtimeRequest struct {
	FilmID   *string `json:"film_id,omitempty" validate:"omitempty,uuid"`
	StartsAt *string `json:"starts_at,omitempty"` // RFC 3339
}
