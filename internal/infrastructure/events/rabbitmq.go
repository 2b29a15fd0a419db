package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sangkips/mesa-api/internal/domain/event"
)

// RabbitMQ publishes events to a durable topic exchange, routed by event type,
// so other systems (kitchen display, reporting) can bind to e.g. "order.*".
type RabbitMQ struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func ConnectRabbitMQ(url, exchange string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("Connected to RabbitMQ, publishing to exchange %s", exchange)
	return &RabbitMQ{conn: conn, channel: channel, exchange: exchange}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, e event.Event) {
	body, err := json.Marshal(e)
	if err != nil {
		log.Printf("Warning: failed to encode event %s: %v", e.Type, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.PublishWithContext(ctx,
		r.exchange,     // exchange
		string(e.Type), // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    e.ID,
			Timestamp:    e.OccurredAt,
			Body:         body,
		})
	if err != nil {
		log.Printf("Warning: failed to publish event %s for %s: %v", e.Type, e.Subject, err)
	}
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
