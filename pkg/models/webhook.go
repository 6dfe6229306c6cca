package models

import (
	"time"
)

// Event is a domain event published to the queue and fanned out to webhooks
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Event types
const (
	EventUserRegistered     = "user.registered"
	EventPaymentSubmitted   = "payment.submitted"
	EventPaymentCompleted   = "payment.completed"
	EventPaymentRejected    = "payment.rejected"
	EventWalletCredited     = "wallet.credited"
	EventAccessPurchased    = "access.purchased"
	EventAccessCodeRedeemed = "access_code.redeemed"
)

// WebhookEndpoint is a configured receiver of domain events
type WebhookEndpoint struct {
	Name   string   `json:"name" mapstructure:"name"`
	URL    string   `json:"url" mapstructure:"url"`
	Secret string   `json:"-" mapstructure:"secret"`
	Events []string `json:"events" mapstructure:"events"`
}

// Subscribes reports whether the endpoint wants the event type.
// An endpoint without an event list receives everything.
func (w *WebhookEndpoint) Subscribes(eventType string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// WebhookDelivery records one attempt sequence for an endpoint
type WebhookDelivery struct {
	ID           string     `json:"id"`
	Endpoint     string     `json:"endpoint"`
	Event        string     `json:"event"`
	Status       string     `json:"status"`
	StatusCode   int        `json:"status_code"`
	ResponseBody string     `json:"response_body,omitempty"`
	Attempts     int        `json:"attempts"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// WebhookDeliveryStatus constants
const (
	WebhookDeliveryStatusPending   = "pending"
	WebhookDeliveryStatusDelivered = "delivered"
	WebhookDeliveryStatusFailed    = "failed"
)

// Payload shapes carried in Event.Data

// PaymentEvent describes a payment state change
type PaymentEvent struct {
	PaymentID int64         `json:"payment_id"`
	UserID    int64         `json:"user_id"`
	Amount    string        `json:"amount"`
	Method    string        `json:"payment_method"`
	Status    PaymentStatus `json:"status"`
}

// AccessEvent describes a granted access
type AccessEvent struct {
	UserID    int64     `json:"user_id"`
	VideoID   int64     `json:"video_id,omitempty"`
	Price     string    `json:"price,omitempty"`
	Code      string    `json:"code,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}
