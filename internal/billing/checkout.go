package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/RMBLOGG/StreamFliix/internal/config"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrNotConfigured is returned when no Stripe secret key is set
var ErrNotConfigured = errors.New("stripe not configured")

// ReturnPath is where Checkout redirects after payment or cancellation
const ReturnPath = "/billing/return"

// Session is the part of a Checkout session the app keeps
type Session struct {
	ID  string
	URL string
}

// Checkout creates Stripe Checkout sessions for wallet top-ups
type Checkout struct {
	sc       *client.API
	currency string
	baseURL  string
}

// NewCheckout initializes a Stripe client from configuration
func NewCheckout(cfg config.StripeConfig, baseURL string) (*Checkout, error) {
	if cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	currency := cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyIDR)
	}

	return &Checkout{sc: sc, currency: currency, baseURL: baseURL}, nil
}

// MinorUnits converts a rupiah amount to the integer Stripe expects.
// Stripe treats IDR as a two-decimal currency.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// CreateSession opens a one-off payment session for amount on behalf of user
func (c *Checkout) CreateSession(ctx context.Context, user *models.User, amount decimal.Decimal) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.currency),
					UnitAmount: stripe.Int64(MinorUnits(amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Top up saldo " + models.FormatRupiah(amount)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(user.Email),
		ClientReferenceID: stripe.String(strconv.FormatInt(user.ID, 10)),
		SuccessURL:        stripe.String(c.baseURL + ReturnPath + "?status=success"),
		CancelURL:         stripe.String(c.baseURL + ReturnPath + "?status=cancel"),
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatInt(user.ID, 10))
	params.AddMetadata("amount", amount.String())

	sess, err := c.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &Session{ID: sess.ID, URL: sess.URL}, nil
}
