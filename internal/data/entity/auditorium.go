package entity

import "github.com/google/uuid"

type PriceCategory string

const (
	PriceCategoryStandard PriceCategory = "standard"
	PriceCategoryPremium  PriceCategory = "premium"
	PriceCategoryLuxury   PriceCategory = "luxury"
)

type Auditorium struct {
	Base
	Name string `db:"name"`
	Rows []Row  `db:"-"`
}

type Row struct {
	Base
	AuditoriumID uuid.UUID     `db:"auditorium_id"`
	Label        string        `db:"label"` // A, B, C, ...
	Category     PriceCategory `db:"category"`
	Seats        []Seat        `db:"-"`
}
