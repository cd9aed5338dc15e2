package notification

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the queue booking events are published to when no queue
// name is configured.
const DefaultQueue = "reservation.events"

// AMQPPublisher delivers booking events to a RabbitMQ queue as persistent
// JSON messages.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewAMQPPublisher dials the broker and declares the durable event queue.
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notification: dial broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("notification: open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("notification: declare queue %s: %w", queue, err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, queue: queue}, nil
}

// Publish sends one event to the queue.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notification: encode event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("notification: publish %s: %w", event.Kind, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.conn.Close()
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
