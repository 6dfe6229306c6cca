package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRejected  PaymentStatus = "rejected"
)

// Payment methods recorded outside of user-chosen transfers
const (
	PaymentMethodAdminCredit = "StreamFlix"
	PaymentMethodCard        = "stripe"
	SenderAdmin              = "ADMIN"
)

// DefaultRejectionNote is stored when an admin rejects without notes
const DefaultRejectionNote = "Payment rejected by admin"

// Payment is a wallet top-up request or an audit record of a credit
type Payment struct {
	ID         int64           `json:"id" db:"id"`
	UserID     int64           `json:"user_id" db:"user_id"`
	UserEmail  string          `json:"user_email,omitempty" db:"-"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Status     PaymentStatus   `json:"status" db:"status"`
	Method     string          `json:"payment_method" db:"payment_method"`
	ProofRef   string          `json:"proof_ref,omitempty" db:"proof_ref"`
	SenderName string          `json:"sender_name" db:"sender_name"`
	AdminNotes string          `json:"admin_notes,omitempty" db:"admin_notes"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// IsSettled reports whether the payment left the pending state
func (p *Payment) IsSettled() bool {
	return p.Status != PaymentStatusPending
}

// CanTransitionTo reports whether a pending payment may move to status
func (p *Payment) CanTransitionTo(status PaymentStatus) bool {
	if p.IsSettled() {
		return false
	}
	return status == PaymentStatusCompleted || status == PaymentStatusRejected
}

// PaymentAccount describes where a user should transfer money for a method
type PaymentAccount struct {
	Method        string `json:"method" mapstructure:"method"`
	Label         string `json:"label" mapstructure:"label"`
	AccountNumber string `json:"account_number" mapstructure:"accountNumber"`
	AccountName   string `json:"account_name" mapstructure:"accountName"`
}

// PaymentInstructions is returned to the wallet page before a transfer
type PaymentInstructions struct {
	Method        string   `json:"method"`
	AccountNumber string   `json:"number"`
	AccountName   string   `json:"name"`
	Amount        string   `json:"amount"`
	Reference     string   `json:"reference"`
	Instructions  []string `json:"instructions"`
}

// FormatRupiah renders an amount as "Rp 12,500" with whole rupiah
func FormatRupiah(amount decimal.Decimal) string {
	s := amount.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
