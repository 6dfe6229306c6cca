package database

import (
	"context"
	"fmt"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/jackc/pgx/v5"
)

const paymentSelect = `
	SELECT p.id, p.user_id, COALESCE(u.email, ''), p.amount, p.status, p.payment_method,
	       p.proof_ref, p.sender_name, p.admin_notes, p.created_at, p.updated_at
	FROM payments p
	LEFT JOIN users u ON u.id = p.user_id
`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.UserID, &p.UserEmail, &p.Amount, &p.Status, &p.Method,
		&p.ProofRef, &p.SenderName, &p.AdminNotes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*models.Payment, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

func insertPayment(ctx context.Context, tx pgx.Tx, payment *models.Payment) error {
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	payment.UpdatedAt = payment.CreatedAt

	query := `
		INSERT INTO payments (user_id, amount, status, payment_method, proof_ref, sender_name, admin_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := tx.QueryRow(ctx, query,
		payment.UserID, payment.Amount, payment.Status, payment.Method, payment.ProofRef,
		payment.SenderName, payment.AdminNotes, payment.CreatedAt, payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// CreatePayment records a pending top-up
func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		return insertPayment(ctx, tx, payment)
	})
}

// GetPayment retrieves a payment by ID
func (r *Repository) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	p, err := scanPayment(r.db.Pool.QueryRow(ctx, paymentSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "payment", id)
	}
	return p, nil
}

// GetPaymentByProof finds the payment holding a proof reference
func (r *Repository) GetPaymentByProof(ctx context.Context, proofRef string) (*models.Payment, error) {
	if proofRef == "" {
		return nil, store.ErrNotFound
	}
	p, err := scanPayment(r.db.Pool.QueryRow(ctx, paymentSelect+` WHERE p.proof_ref = $1`, proofRef))
	if err != nil {
		return nil, notFound(err, "payment", proofRef)
	}
	return p, nil
}

// ListPayments lists payments newest first, optionally filtered by status
func (r *Repository) ListPayments(ctx context.Context, status models.PaymentStatus) ([]*models.Payment, error) {
	if status == "" {
		return r.queryPayments(ctx, paymentSelect+` ORDER BY p.created_at DESC, p.id DESC`)
	}
	return r.queryPayments(ctx, paymentSelect+` WHERE p.status = $1 ORDER BY p.created_at DESC, p.id DESC`, status)
}

// ListUserPayments lists one user's payments newest first
func (r *Repository) ListUserPayments(ctx context.Context, userID int64) ([]*models.Payment, error) {
	return r.queryPayments(ctx, paymentSelect+` WHERE p.user_id = $1 ORDER BY p.created_at DESC, p.id DESC`, userID)
}

// CountPayments counts payments by status
func (r *Repository) CountPayments(ctx context.Context) (*models.PaymentCounts, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'rejected'),
		       COUNT(*)
		FROM payments
	`

	var c models.PaymentCounts
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&c.Pending, &c.Completed, &c.Rejected, &c.Total); err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}
	return &c, nil
}

// CompletedPaymentsSince lists completed payments created at or after since
func (r *Repository) CompletedPaymentsSince(ctx context.Context, since time.Time) ([]*models.Payment, error) {
	return r.queryPayments(ctx,
		paymentSelect+` WHERE p.status = 'completed' AND p.created_at >= $1 ORDER BY p.created_at DESC, p.id DESC`,
		since)
}

// RecentCompletedPayments lists the newest completed payments
func (r *Repository) RecentCompletedPayments(ctx context.Context, limit int) ([]*models.Payment, error) {
	return r.queryPayments(ctx,
		paymentSelect+` WHERE p.status = 'completed' ORDER BY p.created_at DESC, p.id DESC LIMIT $1`,
		limit)
}

// SettlePayment locks the payment row, moves it out of pending and credits
// the owner on completion, all in one transaction
func (r *Repository) SettlePayment(ctx context.Context, id int64, status models.PaymentStatus, notes string, now time.Time) (*models.Payment, error) {
	var settled *models.Payment

	err := r.inTx(ctx, "settle_payment", func(tx pgx.Tx) error {
		p, err := scanPayment(tx.QueryRow(ctx, paymentSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id))
		if err != nil {
			return notFound(err, "payment", id)
		}
		if !p.CanTransitionTo(status) {
			settled = p
			return store.ErrPaymentSettled
		}

		if status == models.PaymentStatusCompleted {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET balance = balance + $2 WHERE id = $1`, p.UserID, p.Amount); err != nil {
				return fmt.Errorf("failed to credit wallet: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`UPDATE payments SET status = $2, admin_notes = $3, updated_at = $4 WHERE id = $1`,
			id, status, notes, now); err != nil {
			return fmt.Errorf("failed to settle payment: %w", err)
		}

		p.Status = status
		p.AdminNotes = notes
		p.UpdatedAt = now
		settled = p
		return nil
	})

	return settled, err
}
