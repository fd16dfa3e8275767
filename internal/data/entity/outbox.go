package entity

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is a domain event persisted in the same transaction as the
// state change it describes. A relay publishes pending rows to the broker
// and stamps PublishedAt, so a crash between commit and publish loses
// nothing; duplicates are possible and consumers deduplicate by ID.
type OutboxEvent struct {
	ID          uuid.UUID  `db:"id"`
	EventType   string     `db:"event_type"`
	Payload     []byte     `db:"payload"`
	OccurredAt  time.Time  `db:"occurred_at"`
	PublishedAt *time.Time `db:"published_at"`
}
