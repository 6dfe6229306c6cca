package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/RMBLOGG/StreamFliix/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const maxWebhookBytes = 65536

// Settler finalizes the pending card top-up opened for a Checkout session
type Settler interface {
	SettleCardPayment(ctx context.Context, sessionID string, paid bool) error
}

// ErrUnknownSession is returned by a Settler that has no payment for the session
var ErrUnknownSession = errors.New("unknown checkout session")

// WebhookHandler verifies Stripe-signed events and settles card top-ups
func WebhookHandler(secret string, settler Settler, logger *logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Nop()
	}

	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stripe webhook not configured"})
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}

		event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			logger.WithError(err).Warn("Stripe webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}

		var paid bool
		switch event.Type {
		case "checkout.session.completed", "checkout.session.async_payment_succeeded":
			paid = true
		case "checkout.session.expired", "checkout.session.async_payment_failed":
			paid = false
		default:
			c.Status(http.StatusOK)
			return
		}

		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout session"})
			return
		}
		if paid && sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			// Delayed methods complete later with checkout.session.async_payment_succeeded
			c.Status(http.StatusOK)
			return
		}

		if err := settler.SettleCardPayment(c.Request.Context(), sess.ID, paid); err != nil {
			if errors.Is(err, ErrUnknownSession) {
				c.Status(http.StatusOK)
				return
			}
			logger.WithField("session_id", sess.ID).WithError(err).Error("Failed to settle card payment")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to settle payment"})
			return
		}

		c.Status(http.StatusOK)
	}
}
