// Package amqp publica las notificaciones de cambio de inventario en un exchange topic de RabbitMQ.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
)

var _ inventory.EventPublisher = (*Publisher)(nil)

// ExchangeType las routing keys son jerárquicas (inventory.stock.changed), los consumidores filtran con comodines.
const ExchangeType = "topic"

// Publisher publicador sobre una conexión y un canal propios.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	now      func() time.Time
}

// NewPublisher conecta, abre canal y declara el exchange durable.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, ExchangeType, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, channel: channel, exchange: exchange, now: time.Now}, nil
}

// Publish serializa payload a JSON y lo publica como mensaje persistente.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	msg, err := newPublishing(payload, p.now())
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish %s: %w", routingKey, err)
	}
	return nil
}

// Close cierra canal y conexión.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func newPublishing(payload any, at time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("amqp: serializar evento: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    at.UTC(),
		Body:         body,
	}, nil
}
