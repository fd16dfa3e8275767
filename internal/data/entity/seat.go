package entity

import "github.com/google/uuid"

type Seat struct {
	Base
	RowID  uuid.UUID `db:"row_id"`
	Number int       `db:"number"`
	// Price is denormalized from the row category at creation time so a
	// later price-list change never reprices seats already on sale.
	Price float64 `db:"price"`
}
