package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/config"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsQueueName = "streamflix_events"
	ExchangeName    = "streamflix"
)

// Queue publishes and consumes domain events over RabbitMQ
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// URL builds the AMQP connection URL
func URL(cfg config.QueueConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)
}

// New creates a new queue client and declares the event topology
func New(cfg config.QueueConfig) (*Queue, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &Queue{conn: conn, channel: channel}
	if err := q.declare(); err != nil {
		q.Close()
		return nil, err
	}

	return q, nil
}

func (q *Queue) declare() error {
	err := q.channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		EventsQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	// Every event type lands in the one events queue
	if err := q.channel.QueueBind(EventsQueueName, "#", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return q.setupDeadLetterQueue()
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Publish sends an event routed by its type
func (q *Queue) Publish(ctx context.Context, event *models.Event) error {
	return q.publish(ctx, ExchangeName, event.Type, event, nil)
}

func encode(event *models.Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

func (q *Queue) publish(ctx context.Context, exchange, routingKey string, event *models.Event, headers amqp.Table) error {
	body, err := encode(event)
	if err != nil {
		return err
	}

	err = q.channel.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.ID,
			Type:         event.Type,
			Body:         body,
			Timestamp:    time.Now(),
			Headers:      headers,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// ConsumeEvents starts consuming events. A failing handler sends the event
// through the delayed retry queue and finally to the dead letter queue.
func (q *Queue) ConsumeEvents(ctx context.Context, handler func(context.Context, *models.Event) error) error {
	err := q.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		EventsQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				q.handle(ctx, msg, handler)
			}
		}
	}()

	return nil
}

func (q *Queue) handle(ctx context.Context, msg amqp.Delivery, handler func(context.Context, *models.Event) error) {
	var event models.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		msg.Nack(false, false)
		return
	}

	if err := handler(ctx, &event); err != nil {
		if rerr := q.retry(ctx, &event, retryCount(msg.Headers), err.Error()); rerr != nil {
			msg.Nack(false, true)
			return
		}
	}

	msg.Ack(false)
}

// GetQueueDepth returns the number of messages in the queue
func (q *Queue) GetQueueDepth() (int, error) {
	info, err := q.channel.QueueInspect(EventsQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}
