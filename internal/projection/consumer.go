package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cinema-ops/internal/event"
	"cinema-ops/pkg/mq"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer applies bus events to the projection store. Delivery is
// at-least-once and possibly reordered; Apply is idempotent per envelope
// ID so duplicates never double-count revenue.
type Consumer struct {
	store Store
	url   string
	queue string
	log   *zap.Logger
}

func NewConsumer(store Store, url, queue string, log *zap.Logger) *Consumer {
	return &Consumer{
		store: store,
		url:   url,
		queue: queue,
		log:   log.With(zap.String("component", "projection-consumer")),
	}
}

// Run consumes until the context is cancelled, reconnecting with backoff
// when the broker drops the connection.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			c.log.Info("Projection consumer stopped")
			return
		}

		conn, ch, err := mq.Connect(c.url)
		if err != nil {
			c.log.Warn("Broker dial failed, retrying",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(ctx, ch); err != nil && ctx.Err() == nil {
			c.log.Warn("Consume loop ended, reconnecting", zap.Error(err))
		}
		ch.Close()
		conn.Close()
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, ch *amqp.Channel) error {
	if err := mq.DeclareQueue(ch, c.queue); err != nil {
		return err
	}

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("Set QoS failed", zap.Error(err))
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}

			var envelope event.Envelope
			if err := json.Unmarshal(d.Body, &envelope); err != nil {
				c.log.Error("Malformed event dropped", zap.Error(err))
				// Poison message: reject without requeue.
				_ = d.Nack(false, false)
				continue
			}

			if err := c.Apply(ctx, envelope); err != nil {
				c.log.Warn("Failed to apply event, requeueing",
					zap.Error(err),
					zap.String("event_id", envelope.ID.String()),
					zap.String("event_type", envelope.Type),
				)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Apply applies one envelope exactly once. The event id is claimed first;
// a redelivered envelope finds the claim and is acked without applying.
// A failed apply releases the claim so the redelivery can retry.
func (c *Consumer) Apply(ctx context.Context, envelope event.Envelope) error {
	first, err := c.store.MarkApplied(ctx, envelope.ID)
	if err != nil {
		return fmt.Errorf("claim event %s: %w", envelope.ID.String(), err)
	}
	if !first {
		c.log.Debug("Duplicate event skipped",
			zap.String("event_id", envelope.ID.String()),
			zap.String("event_type", envelope.Type),
		)
		return nil
	}

	if err := c.apply(ctx, envelope); err != nil {
		if unmarkErr := c.store.Unmark(ctx, envelope.ID); unmarkErr != nil {
			c.log.Error("Failed to release event claim",
				zap.Error(unmarkErr),
				zap.String("event_id", envelope.ID.String()),
			)
		}
		return err
	}

	return nil
}

func (c *Consumer) apply(ctx context.Context, envelope event.Envelope) error {
	day := envelope.OccurredAt.Format("2006-01-02")

	switch envelope.Type {
	case event.TypeShowCreated:
		var ev event.ShowCreated
		if err := json.Unmarshal(envelope.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", envelope.Type, err)
		}
		return c.store.UpsertShow(ctx, ev)

	case event.TypeTicketSold:
		var ev event.TicketSold
		if err := json.Unmarshal(envelope.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", envelope.Type, err)
		}
		return c.store.AddSale(ctx, day, ev.ShowtimeID, ev.Quantity, ev.TotalPrice)

	case event.TypeTicketCancelled:
		var ev event.TicketCancelled
		if err := json.Unmarshal(envelope.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", envelope.Type, err)
		}
		return c.store.AddCancellation(ctx, day, ev.ShowtimeID, ev.Quantity, ev.TotalPrice)

	case event.TypePaymentConfirmed:
		var ev event.PaymentConfirmed
		if err := json.Unmarshal(envelope.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", envelope.Type, err)
		}
		return c.store.UpsertPayment(ctx, ev, envelope.OccurredAt)

	case event.TypeCustomerRegistered:
		var ev event.CustomerRegistered
		if err := json.Unmarshal(envelope.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", envelope.Type, err)
		}
		return c.store.UpsertCustomer(ctx, ev, envelope.OccurredAt)

	default:
		c.log.Warn("Unknown event type ignored", zap.String("event_type", envelope.Type))
		return nil
	}
}
