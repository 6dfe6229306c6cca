package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/logging"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Repository provides database operations
type Repository struct {
	db     *DB
	logger *logging.Logger
}

// NewRepository creates a new repository. A nil logger discards output.
func NewRepository(db *DB, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Repository{db: db, logger: logger}
}

var _ store.Store = (*Repository)(nil)

// Ping checks database connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Health(ctx)
}

// outcomes are rejections the caller handles, not database failures
var outcomes = []error{
	store.ErrNotFound,
	store.ErrInsufficientBalance,
	store.ErrPaymentSettled,
	store.ErrAccessCodeExpired,
	store.ErrAccessCodeBound,
}

func isOutcome(err error) bool {
	for _, target := range outcomes {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// inTx runs fn in a transaction and logs how long it took
func (r *Repository) inTx(ctx context.Context, operation string, fn func(pgx.Tx) error) error {
	start := time.Now()
	err := pgx.BeginFunc(ctx, r.db.Pool, fn)

	logged := err
	if isOutcome(err) {
		logged = nil
	}
	r.logger.LogDatabaseOperation(operation, time.Since(start), logged)

	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error, what string, id interface{}) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, store.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// Totals computes the dashboard headline counters in one round trip
func (r *Repository) Totals(ctx context.Context) (*models.Totals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE NOT is_deleted),
			(SELECT COUNT(*) FROM videos),
			(SELECT COUNT(*) FROM videos WHERE is_premium),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM announcements),
			(SELECT COUNT(*) FROM announcements WHERE is_active),
			(SELECT COUNT(*) FROM payments WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed')
	`

	var t models.Totals
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&t.Users, &t.Videos, &t.PremiumVideos, &t.Categories,
		&t.Announcements, &t.ActiveAnnouncements, &t.PendingPayments, &t.Revenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}

	return &t, nil
}
