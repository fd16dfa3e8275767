package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher delivers envelopes to the broker. Delivery is at-least-once:
// the broker may redeliver, consumers deduplicate by envelope ID.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
}

type amqpPublisher struct {
	ch    *amqp.Channel
	queue string
	log   *zap.Logger
}

func NewPublisher(ch *amqp.Channel, queue string, log *zap.Logger) Publisher {
	return &amqpPublisher{
		ch:    ch,
		queue: queue,
		log:   log.With(zap.String("component", "publisher")),
	}
}

func (p *amqpPublisher) Publish(ctx context.Context, envelope Envelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", envelope.ID.String(), err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    envelope.ID.String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.log.Warn("Failed to publish event",
			zap.Error(err),
			zap.String("event_id", envelope.ID.String()),
			zap.String("event_type", envelope.Type),
		)
		return fmt.Errorf("publish event %s to queue %s: %w", envelope.ID.String(), p.queue, err)
	}

	return nil
}
