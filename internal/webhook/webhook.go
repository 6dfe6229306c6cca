package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/logging"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/google/uuid"
)

const maxResponseBody = 4096

// Service delivers domain events to configured webhook endpoints
type Service struct {
	client    *http.Client
	endpoints []models.WebhookEndpoint
	logger    *logging.Logger
}

// NewService creates a new webhook service
func NewService(endpoints []models.WebhookEndpoint, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoints: endpoints,
		logger:    logger,
	}
}

// Deliver posts event to every subscribed endpoint and returns one delivery
// record per endpoint. The error is non-nil when any endpoint failed, which
// lets the queue consumer schedule a retry.
func (s *Service) Deliver(ctx context.Context, event *models.Event) ([]*models.WebhookDelivery, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var deliveries []*models.WebhookDelivery
	failed := 0
	for i := range s.endpoints {
		endpoint := &s.endpoints[i]
		if !endpoint.Subscribes(event.Type) {
			continue
		}

		delivery := &models.WebhookDelivery{
			ID:        uuid.New().String(),
			Endpoint:  endpoint.Name,
			Event:     event.Type,
			Status:    models.WebhookDeliveryStatusPending,
			CreatedAt: time.Now(),
		}
		s.deliver(ctx, endpoint, event, delivery, payload)
		if delivery.Status != models.WebhookDeliveryStatusDelivered {
			failed++
		}
		deliveries = append(deliveries, delivery)
	}

	if failed > 0 {
		return deliveries, fmt.Errorf("%d of %d webhook deliveries failed", failed, len(deliveries))
	}
	return deliveries, nil
}

// Publish delivers in the background. It stands in for the queue when no
// broker is configured.
func (s *Service) Publish(ctx context.Context, event *models.Event) error {
	go func() {
		if _, err := s.Deliver(context.Background(), event); err != nil {
			s.logger.WithField("event", event.Type).WithError(err).Warn("Webhook delivery failed")
		}
	}()
	return nil
}

func (s *Service) deliver(ctx context.Context, endpoint *models.WebhookEndpoint, event *models.Event, delivery *models.WebhookDelivery, payload []byte) {
	delivery.Attempts++

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		s.markDeliveryFailed(delivery, 0, fmt.Sprintf("Failed to create request: %v", err))
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "StreamFlix-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", event.Type)
	// Receivers dedupe on the event id across retries
	req.Header.Set("X-Webhook-Delivery", event.ID)

	if endpoint.Secret != "" {
		req.Header.Set("X-Webhook-Signature", GenerateSignature(payload, endpoint.Secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.markDeliveryFailed(delivery, 0, fmt.Sprintf("Failed to send request: %v", err))
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		delivery.Status = models.WebhookDeliveryStatusDelivered
		delivery.StatusCode = resp.StatusCode
		delivery.ResponseBody = string(body)
		now := time.Now()
		delivery.CompletedAt = &now
		return
	}

	s.markDeliveryFailed(delivery, resp.StatusCode, string(body))
}

func (s *Service) markDeliveryFailed(delivery *models.WebhookDelivery, statusCode int, responseBody string) {
	delivery.Status = models.WebhookDeliveryStatusFailed
	delivery.StatusCode = statusCode
	delivery.ResponseBody = responseBody
	now := time.Now()
	delivery.CompletedAt = &now

	s.logger.WithFields(map[string]interface{}{
		"endpoint":    delivery.Endpoint,
		"event":       delivery.Event,
		"status_code": statusCode,
	}).Warn("Webhook endpoint rejected delivery")
}

// GenerateSignature generates the HMAC-SHA256 signature for a webhook payload
func GenerateSignature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks a signature header against payload
func VerifySignature(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(GenerateSignature(payload, secret)), []byte(signature))
}
