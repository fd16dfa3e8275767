package worker

import (
	"context"
	"time"

	"cinema-ops/internal/data/repository"

	"go.uber.org/zap"
)

// Reaper sweeps reservations whose hold expired and returns the seats to
// the free pool. Allocation paths also treat expired holds as claimable,
// so the sweep only keeps the stored state tidy between requests.
type Reaper struct {
	uow      repository.UnitOfWork
	interval time.Duration
	log      *zap.Logger
}

func NewReaper(uow repository.UnitOfWork, interval time.Duration, log *zap.Logger) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		uow:      uow,
		interval: interval,
		log:      log.With(zap.String("worker", "reaper")),
	}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("Reaper started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	var freed int64
	err := r.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		n, err := tx.Ticket.FreeExpiredHolds(ctx, time.Now())
		if err != nil {
			return err
		}
		freed = n
		return nil
	})
	if err != nil {
		r.log.Error("Failed to free expired holds", zap.Error(err))
		return
	}
	if freed > 0 {
		r.log.Info("Expired holds freed", zap.Int64("count", freed))
	}
}
