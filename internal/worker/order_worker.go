package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/go-storefront/internal/cache"
	"github.com/flicky/go-storefront/internal/events"
	"github.com/flicky/go-storefront/internal/metrics"
	"github.com/flicky/go-storefront/internal/model"
)

const idempotencyTTL = 24 * time.Hour

type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order) error
}

// Idempotency remembers which orders were already notified.
type Idempotency interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

// OrderWorker sends a confirmation email for every placed order.
type OrderWorker struct {
	channel *amqp.Channel
	orders  OrderReader
	mailer  Mailer
	seen    Idempotency
	log     *slog.Logger
	done    chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
}

func NewOrderWorker(ch *amqp.Channel, orders OrderReader, mailer Mailer, seen Idempotency, log *slog.Logger) *OrderWorker {
	return &OrderWorker{
		channel: ch,
		orders:  orders,
		mailer:  mailer,
		seen:    seen,
		log:     log,
		done:    make(chan struct{}),
	}
}

func (w *OrderWorker) Start(ctx context.Context) error {
	if err := w.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := w.channel.Consume(events.OrdersPlacedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started", "queue", events.OrdersPlacedQueue)
	return nil
}

// Stop ends consumption and waits for the in-flight message. It is safe to
// call more than once.
func (w *OrderWorker) Stop() {
	w.stop.Do(func() { close(w.done) })
	w.wg.Wait()
}

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderPlacedMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		metrics.OrderEventsProcessed.WithLabelValues("malformed").Inc()
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "order_number", orderMsg.OrderNumber)

	key := cache.OrderNotifiedKey(orderMsg.OrderID)
	seen, err := w.seen.Seen(ctx, key)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("order already notified, skipping")
		metrics.OrderEventsProcessed.WithLabelValues("duplicate").Inc()
		_ = msg.Ack(false)
		return
	}

	if err := w.notify(ctx, orderMsg.OrderID); err != nil {
		log.Error("notify order failed", "error", err)
		metrics.OrderEventsProcessed.WithLabelValues("failed").Inc()
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if err := w.seen.Mark(ctx, key, idempotencyTTL); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	metrics.OrderEventsProcessed.WithLabelValues("sent").Inc()
	_ = msg.Ack(false)
	log.Info("order confirmation sent")
}

func (w *OrderWorker) notify(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", orderID)
	}
	return w.mailer.SendOrderConfirmation(ctx, order)
}
