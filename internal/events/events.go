// Package events carries order notifications over RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/go-storefront/internal/model"
)

const (
	OrdersPlacedQueue  = "orders.placed"
	DeadLetterExchange = "orders.dlx"
	DeadLetterQueue    = "orders.dlq"
)

// Setup declares the order queue with its dead-letter exchange and queue.
// Declarations are idempotent, so the API and the worker both call it.
func Setup(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(DeadLetterQueue, OrdersPlacedQueue, DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(OrdersPlacedQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": OrdersPlacedQueue,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	return nil
}

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, msg model.OrderPlacedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", OrdersPlacedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.OrderID.String(),
	})
	if err != nil {
		return fmt.Errorf("publish order message: %w", err)
	}
	return nil
}
