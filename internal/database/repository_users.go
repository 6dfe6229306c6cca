package database

import (
	"context"
	"fmt"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, email, password_hash, balance, role, is_active, is_deleted, deleted_at, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Balance, &u.Role,
		&u.IsActive, &u.IsDeleted, &u.DeletedAt, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user, failing with store.ErrEmailTaken on a live duplicate
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (email, password_hash, balance, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.Balance, user.Role, user.IsActive, user.CreatedAt,
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return store.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by ID, including soft-deleted ones
func (r *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

// GetUserByEmail retrieves a live user by case-insensitive email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) AND NOT is_deleted`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return u, nil
}

// ListUsers lists live users newest first
func (r *Repository) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE NOT is_deleted ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// SetUserActive flips the active flag of a live user
func (r *Repository) SetUserActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET is_active = $2 WHERE id = $1 AND NOT is_deleted`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// SoftDeleteUser deactivates and marks a user deleted, freeing the email
func (r *Repository) SoftDeleteUser(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET is_deleted = TRUE, is_active = FALSE, deleted_at = $2 WHERE id = $1 AND NOT is_deleted`,
		id, at)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// CreditWallet adds amount to the balance and records the payment atomically
func (r *Repository) CreditWallet(ctx context.Context, userID int64, amount decimal.Decimal, payment *models.Payment) error {
	return r.inTx(ctx, "credit_wallet", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE users SET balance = balance + $2 WHERE id = $1 AND NOT is_deleted`, userID, amount)
		if err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("user %d: %w", userID, store.ErrNotFound)
		}

		payment.UserID = userID
		return insertPayment(ctx, tx, payment)
	})
}
