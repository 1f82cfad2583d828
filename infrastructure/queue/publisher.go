package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/AzielCF/az-agent/notifications/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const exchangeKind = "topic"

// AMQPPublisher publishes domain events to a durable topic exchange, using the
// event type as routing key.
type AMQPPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with mu held or before the publisher is shared.
func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("amqp exchange %s: %w", p.exchange, err)
	}
	p.conn, p.ch = conn, ch
	logrus.Infof("[QUEUE] Connected, publishing to exchange %s", p.exchange)
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		string(event.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Type:         string(event.Type),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

// LogPublisher stands in for the broker when AMQP is disabled.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event domain.Event) error {
	logrus.WithFields(logrus.Fields{"event": event.Type, "agent_id": event.AgentID}).Debug("[QUEUE] AMQP disabled, event not published")
	return nil
}

func (LogPublisher) Close() error { return nil }
