package request

type CreateFilmRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty"`
	// Runtime is the raw catalog value; the unit is normalized at use.
	Runtime     int     `json:"runtime" validate:"omitempty,min=1"`
	ReleaseDate *string `json:"release_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
