package repository

import (
	"context"
	"fmt"
	"time"

	"cinema-ops/internal/data/entity"
	"cinema-ops/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	Add(ctx context.Context, event *entity.OutboxEvent) error
	// FetchPending locks up to limit unsent rows with SKIP LOCKED so
	// multiple relay instances never publish the same row concurrently.
	FetchPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error
}

type outboxRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewOutboxRepository(db database.Querier, log *zap.Logger) OutboxRepository {
	return &outboxRepository{
		db:  db,
		log: log.With(zap.String("repository", "outbox")),
	}
}

func (r *outboxRepository) Add(ctx context.Context, event *entity.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.OccurredAt,
	)

	if err != nil {
		r.log.Error("Failed to append outbox event",
			zap.Error(err),
			zap.String("event_type", event.EventType),
		)
		return fmt.Errorf("append outbox event %s: %w", event.EventType, translateDBErr(err))
	}

	return nil
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, occurred_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY occurred_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to fetch pending outbox events", zap.Error(err))
		return nil, fmt.Errorf("fetch pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []*entity.OutboxEvent
	for rows.Next() {
		var event entity.OutboxEvent
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.Payload,
			&event.OccurredAt,
			&event.PublishedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan outbox row", zap.Error(err))
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, &event)
	}

	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE outbox_events SET published_at = $2 WHERE id = ANY($1)`

	_, err := r.db.Exec(ctx, query, ids, publishedAt)
	if err != nil {
		r.log.Error("Failed to mark outbox events published",
			zap.Error(err),
			zap.Int("count", len(ids)),
		)
		return fmt.Errorf("mark %d outbox events published: %w", len(ids), err)
	}

	return nil
}
