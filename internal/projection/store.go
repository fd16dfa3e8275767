// Package projection applies domain events to a read-optimized store:
// daily revenue counters and a customer registration feed.
package projection

import (
	"context"
	"fmt"
	"time"

	"cinema-ops/internal/event"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is the write contract of the read-projection store. Upserts are
// keyed on stable natural identifiers (showtime id, customer id) and
// counter updates are atomic, so applying the same logical change twice
// never creates duplicate rows.
type Store interface {
	// MarkApplied records the event id and reports whether this is the
	// first time it was seen. Redelivered events return false and must
	// not be applied again. The claim is taken before the apply, so a
	// process crash between the two drops that event from the projection;
	// the primary store stays authoritative and the projection can be
	// rebuilt from it.
	MarkApplied(ctx context.Context, eventID uuid.UUID) (bool, error)
	// Unmark releases the id after a failed apply so redelivery retries it.
	Unmark(ctx context.Context, eventID uuid.UUID) error

	UpsertShow(ctx context.Context, ev event.ShowCreated) error
	AddSale(ctx context.Context, day string, showtimeID uuid.UUID, quantity int, revenue float64) error
	AddCancellation(ctx context.Context, day string, showtimeID uuid.UUID, quantity int, revenue float64) error
	UpsertCustomer(ctx context.Context, ev event.CustomerRegistered, registeredAt time.Time) error
	UpsertPayment(ctx context.Context, ev event.PaymentConfirmed, paidAt time.Time) error
}

const (
	// appliedKeyTTL must outlast the broker's redelivery horizon: a
	// duplicate arriving after the key expired is counted again.
	appliedKeyTTL = 7 * 24 * time.Hour

	keyApplied      = "proj:applied:%s"       // event id
	keyShow         = "proj:show:%s"          // showtime id
	keyShowRevenue  = "proj:revenue:show:%s"  // showtime id
	keyDayRevenue   = "proj:revenue:day:%s"   // YYYY-MM-DD
	keyCustomer     = "proj:customer:%s"      // customer id
	keyPayment      = "proj:payment:%s"       // booking id
	keyRegistration = "proj:registrations:%s" // YYYY-MM-DD
)

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) MarkApplied(ctx context.Context, eventID uuid.UUID) (bool, error) {
	return s.rdb.SetNX(ctx, fmt.Sprintf(keyApplied, eventID.String()), "1", appliedKeyTTL).Result()
}

func (s *redisStore) Unmark(ctx context.Context, eventID uuid.UUID) error {
	return s.rdb.Del(ctx, fmt.Sprintf(keyApplied, eventID.String())).Err()
}

func (s *redisStore) UpsertShow(ctx context.Context, ev event.ShowCreated) error {
	key := fmt.Sprintf(keyShow, ev.ShowtimeID.String())
	return s.rdb.HSet(ctx, key,
		"film_id", ev.FilmID.String(),
		"film_title", ev.FilmTitle,
		"auditorium_id", ev.AuditoriumID.String(),
		"starts_at", ev.StartsAt.Format(time.RFC3339),
		"ends_at", ev.EndsAt.Format(time.RFC3339),
		"seat_count", ev.SeatCount,
	).Err()
}

func (s *redisStore) AddSale(ctx context.Context, day string, showtimeID uuid.UUID, quantity int, revenue float64) error {
	pipe := s.rdb.TxPipeline()

	showKey := fmt.Sprintf(keyShowRevenue, showtimeID.String())
	pipe.HIncrBy(ctx, showKey, "tickets", int64(quantity))
	pipe.HIncrByFloat(ctx, showKey, "revenue", revenue)

	dayKey := fmt.Sprintf(keyDayRevenue, day)
	pipe.HIncrBy(ctx, dayKey, "tickets", int64(quantity))
	pipe.HIncrByFloat(ctx, dayKey, "revenue", revenue)

	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) AddCancellation(ctx context.Context, day string, showtimeID uuid.UUID, quantity int, revenue float64) error {
	return s.AddSale(ctx, day, showtimeID, -quantity, -revenue)
}

func (s *redisStore) UpsertPayment(ctx context.Context, ev event.PaymentConfirmed, paidAt time.Time) error {
	key := fmt.Sprintf(keyPayment, ev.BookingID.String())
	return s.rdb.HSet(ctx, key,
		"showtime_id", ev.ShowtimeID.String(),
		"amount", ev.Amount,
		"paid_at", paidAt.Format(time.RFC3339),
	).Err()
}

func (s *redisStore) UpsertCustomer(ctx context.Context, ev event.CustomerRegistered, registeredAt time.Time) error {
	pipe := s.rdb.TxPipeline()

	pipe.HSet(ctx, fmt.Sprintf(keyCustomer, ev.CustomerID.String()),
		"name", ev.Name,
		"email", ev.Email,
		"registered_at", registeredAt.Format(time.RFC3339),
	)
	pipe.HIncrBy(ctx, fmt.Sprintf(keyRegistration, registeredAt.Format("2006-01-02")), "count", 1)

	_, err := pipe.Exec(ctx)
	return err
}
