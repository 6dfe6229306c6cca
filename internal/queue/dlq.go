package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DeadLetterQueueName = "streamflix_events_dlq"
	RetryQueueName      = "streamflix_events_retry"
	MaxRetries          = 5
)

func (q *Queue) setupDeadLetterQueue() error {
	_, err := q.channel.QueueDeclare(
		DeadLetterQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	// Expired retry messages flow back into the main exchange
	retryArgs := amqp.Table{
		"x-dead-letter-exchange": ExchangeName,
	}

	_, err = q.channel.QueueDeclare(
		RetryQueueName,
		true,
		false,
		false,
		false,
		retryArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	return nil
}

func (q *Queue) retry(ctx context.Context, event *models.Event, attempt int, reason string) error {
	if attempt >= MaxRetries {
		return q.publish(ctx, "", DeadLetterQueueName, event, amqp.Table{
			"x-failure-reason": reason,
			"x-failed-at":      time.Now().Format(time.RFC3339),
		})
	}

	body := amqp.Table{"x-retry-count": int32(attempt + 1)}
	delay := calculateBackoffDelay(attempt)

	return q.publishDelayed(ctx, event, body, delay)
}

func (q *Queue) publishDelayed(ctx context.Context, event *models.Event, headers amqp.Table, delay time.Duration) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}

	// The retry queue dead-letters with the original routing key, which is
	// the event type, so the message re-enters the events queue
	err = q.channel.PublishWithContext(ctx,
		"",
		RetryQueueName,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.ID,
			Type:         event.Type,
			Body:         msg,
			Timestamp:    time.Now(),
			Headers:      headers,
			Expiration:   fmt.Sprintf("%d", delay.Milliseconds()),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}
	return nil
}

// retryCount reads the retry header set by earlier attempts
func retryCount(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// calculateBackoffDelay doubles from 5s per attempt, capped at 10 minutes
func calculateBackoffDelay(attempt int) time.Duration {
	delay := 5 * time.Second
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= 10*time.Minute {
			return 10 * time.Minute
		}
	}
	return delay
}

// GetDLQDepth returns the number of events parked in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(DeadLetterQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}
