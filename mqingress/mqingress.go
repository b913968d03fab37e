// Package mqingress is the optional upstream-queue ingress contract named in
// spec.md §1/§9: an at-most-once producer of raw write payloads sitting in
// front of the core. It knows nothing about WriteDoc, Index names, or dedup
// — it only moves message bytes off a RabbitMQ queue and hands them to a
// caller-supplied handler. requestmanager.StorageRoot owns every decision
// about what those bytes mean and whether a given write has already been
// applied.
package mqingress

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eaglenest7/infino/errs"
)

// Config describes how to reach the upstream queue and which queue to drain.
type Config struct {
	URL       string
	Queue     string
	Consumer  string
	Durable   bool
	AutoAck   bool
	Exclusive bool
}

// Ingress is a single connection/channel pair bound to one queue.
type Ingress struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	cfg  Config
}

// Handler processes one message's raw body. A non-nil error nacks the
// delivery (when AutoAck is false) so RabbitMQ redelivers it.
type Handler func(ctx context.Context, body []byte) error

// Connect dials the broker, opens a channel, and declares cfg.Queue.
func Connect(cfg Config) (*Ingress, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errs.Newf(err, errs.StorageTransient, "mqingress: dial %q failed", cfg.URL)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()

		return nil, errs.New(err, errs.StorageTransient, "mqingress: failed to open channel")
	}

	if _, err := ch.QueueDeclare(cfg.Queue, cfg.Durable, false, cfg.Exclusive, false, nil); err != nil {
		ch.Close()
		conn.Close()

		return nil, errs.Newf(err, errs.StorageTransient, "mqingress: failed to declare queue %q", cfg.Queue)
	}

	return &Ingress{conn: conn, ch: ch, cfg: cfg}, nil
}

// Run drains cfg.Queue, calling handle for every delivery, until ctx is
// cancelled or the delivery channel closes. It returns ctx.Err() on
// cancellation.
func (i *Ingress) Run(ctx context.Context, handle Handler) error {
	deliveries, err := i.ch.ConsumeWithContext(ctx, i.cfg.Queue, i.cfg.Consumer, i.cfg.AutoAck, i.cfg.Exclusive, false, false, nil)
	if err != nil {
		return errs.New(err, errs.StorageTransient, "mqingress: failed to start consuming")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			if err := handle(ctx, d.Body); err != nil {
				if !i.cfg.AutoAck {
					_ = d.Nack(false, true)
				}

				continue
			}

			if !i.cfg.AutoAck {
				_ = d.Ack(false)
			}
		}
	}
}

// Close tears down the channel and connection.
func (i *Ingress) Close() error {
	chErr := i.ch.Close()
	connErr := i.conn.Close()

	if chErr != nil {
		return chErr
	}

	return connErr
}
