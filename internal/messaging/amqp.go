// Package messaging publishes ingestion lifecycle events to RabbitMQ.
package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/streadway/amqp"
)

// Routing keys.
const (
	RoutingIngestionCompleted = "ingestion.completed"
	RoutingIngestionFailed    = "ingestion.failed"
)

// IngestionEvent is the body of every ingestion event.
type IngestionEvent struct {
	JobID        string    `json:"job_id"`
	UserID       uint      `json:"user_id"`
	Status       string    `json:"status"`
	ActivityRows int       `json:"activity_rows"`
	WorkoutRows  int       `json:"workout_rows"`
	ExerciseRows int       `json:"exercise_rows"`
	DroppedRows  int       `json:"dropped_rows"`
	Warnings     int       `json:"warnings"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// RoutingKey picks the key for the event's status.
func (e IngestionEvent) RoutingKey() string {
	if e.Error != "" {
		return RoutingIngestionFailed
	}
	return RoutingIngestionCompleted
}

// Publisher emits ingestion events.
type Publisher interface {
	PublishIngestion(event IngestionEvent) error
	Close() error
}

// AMQPPublisher publishes to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishIngestion(event IngestionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.Publish(
		p.exchange,
		event.RoutingKey(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: event.JobID,
			Timestamp:     event.OccurredAt,
			Body:          body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher drops every event. It stands in when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishIngestion(IngestionEvent) error { return nil }
func (NopPublisher) Close() error                          { return nil }
