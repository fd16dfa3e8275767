package event

import (
	"context"
	"time"

	"cinema-ops/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const relayBatchSize = 100

// Relay drains the outbox to the broker. Rows are published inside the
// same transaction that marks them sent, so a publish failure rolls the
// mark back and the row is retried on the next pass. A crash after
// publish but before commit re-publishes the row: duplicates are
// acceptable, losses are not.
type Relay struct {
	uow      repository.UnitOfWork
	pub      Publisher
	interval time.Duration
	kick     chan struct{}
	log      *zap.Logger
}

func NewRelay(uow repository.UnitOfWork, pub Publisher, interval time.Duration, log *zap.Logger) *Relay {
	return &Relay{
		uow:      uow,
		pub:      pub,
		interval: interval,
		kick:     make(chan struct{}, 1),
		log:      log.With(zap.String("component", "outbox-relay")),
	}
}

// Kick asks the relay to drain soon. Called from after-commit hooks so
// events reach the broker without waiting for the next tick. Never blocks.
func (r *Relay) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Run drains the outbox until the context is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Outbox relay stopped")
			return
		case <-ticker.C:
		case <-r.kick:
		}

		if err := r.drain(ctx); err != nil {
			r.log.Warn("Outbox drain failed", zap.Error(err))
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	for {
		published := 0

		err := r.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
			pending, err := tx.Outbox.FetchPending(ctx, relayBatchSize)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				return nil
			}

			sent := make([]uuid.UUID, 0, len(pending))
			for _, row := range pending {
				if err := r.pub.Publish(ctx, EnvelopeFromOutbox(row)); err != nil {
					// Mark what already went out, retry the rest next pass.
					break
				}
				sent = append(sent, row.ID)
			}

			if len(sent) == 0 {
				return nil
			}

			published = len(sent)
			return tx.Outbox.MarkPublished(ctx, sent, time.Now())
		})
		if err != nil {
			return err
		}

		if published > 0 {
			r.log.Debug("Outbox events published", zap.Int("count", published))
		}
		if published < relayBatchSize {
			return nil
		}
	}
}
