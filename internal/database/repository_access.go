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

// Accesses

// FindValidAccess returns the longest-lived unexpired access for a user and video
func (r *Repository) FindValidAccess(ctx context.Context, userID, videoID int64, now time.Time) (*models.Access, error) {
	query := `
		SELECT id, user_id, video_id, expires_at, created_at
		FROM accesses
		WHERE user_id = $1 AND video_id = $2 AND expires_at > $3
		ORDER BY expires_at DESC
		LIMIT 1
	`

	var a models.Access
	err := r.db.Pool.QueryRow(ctx, query, userID, videoID, now).Scan(
		&a.ID, &a.UserID, &a.VideoID, &a.ExpiresAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "access", videoID)
	}
	return &a, nil
}

// ListValidAccesses lists a user's unexpired accesses with their videos
func (r *Repository) ListValidAccesses(ctx context.Context, userID int64, now time.Time) ([]*models.Access, error) {
	query := `
		SELECT a.id, a.user_id, a.video_id, a.expires_at, a.created_at,
		       v.id, v.title, v.embed_url, v.thumbnail_url, v.description, v.price,
		       v.is_premium, v.category_id, COALESCE(c.name, ''), v.created_at
		FROM accesses a
		JOIN videos v ON v.id = a.video_id
		LEFT JOIN categories c ON c.id = v.category_id
		WHERE a.user_id = $1 AND a.expires_at > $2
		ORDER BY a.expires_at
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list accesses: %w", err)
	}
	defer rows.Close()

	var accesses []*models.Access
	for rows.Next() {
		var a models.Access
		var v models.Video
		err := rows.Scan(
			&a.ID, &a.UserID, &a.VideoID, &a.ExpiresAt, &a.CreatedAt,
			&v.ID, &v.Title, &v.EmbedURL, &v.ThumbnailURL, &v.Description, &v.Price,
			&v.IsPremium, &v.CategoryID, &v.CategoryName, &v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access: %w", err)
		}
		a.Video = &v
		accesses = append(accesses, &a)
	}

	return accesses, rows.Err()
}

// PurchaseAccess locks the buyer, checks the balance, debits and grants in one transaction
func (r *Repository) PurchaseAccess(ctx context.Context, userID, videoID int64, price decimal.Decimal, now, expiresAt time.Time) (*models.Access, error) {
	access := &models.Access{UserID: userID, VideoID: videoID, ExpiresAt: expiresAt, CreatedAt: now}

	err := r.inTx(ctx, "purchase_access", func(tx pgx.Tx) error {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx,
			`SELECT balance FROM users WHERE id = $1 AND NOT is_deleted FOR UPDATE`, userID).Scan(&balance)
		if err != nil {
			return notFound(err, "user", userID)
		}
		if balance.LessThan(price) {
			return store.ErrInsufficientBalance
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET balance = balance - $2 WHERE id = $1`, userID, price); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO accesses (user_id, video_id, expires_at, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			userID, videoID, expiresAt, now,
		).Scan(&access.ID)
		if categoryMissing(err) {
			return fmt.Errorf("video %d: %w", videoID, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to create access: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return access, nil
}

// Access codes

const accessCodeColumns = `id, code, note, device_id, bound_at, expires_at, created_at`

func scanAccessCode(row pgx.Row) (*models.AccessCode, error) {
	var c models.AccessCode
	if err := row.Scan(&c.ID, &c.Code, &c.Note, &c.DeviceID, &c.BoundAt, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateAccessCode inserts an unbound code
func (r *Repository) CreateAccessCode(ctx context.Context, code *models.AccessCode) error {
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}

	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO access_codes (code, note, expires_at, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		code.Code, code.Note, code.ExpiresAt, code.CreatedAt,
	).Scan(&code.ID)
	if isUniqueViolation(err) {
		return store.ErrAccessCodeExists
	}
	if err != nil {
		return fmt.Errorf("failed to create access code: %w", err)
	}
	return nil
}

// ListAccessCodes lists codes newest first
func (r *Repository) ListAccessCodes(ctx context.Context) ([]*models.AccessCode, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+accessCodeColumns+` FROM access_codes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list access codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.AccessCode
	for rows.Next() {
		c, err := scanAccessCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access code: %w", err)
		}
		codes = append(codes, c)
	}

	return codes, rows.Err()
}

// DeleteAccessCode removes a code
func (r *Repository) DeleteAccessCode(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM access_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete access code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("access code %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// BindAccessCode claims a code for deviceID under a row lock
func (r *Repository) BindAccessCode(ctx context.Context, code, deviceID string, now time.Time) (*models.AccessCode, error) {
	var bound *models.AccessCode

	err := r.inTx(ctx, "bind_access_code", func(tx pgx.Tx) error {
		c, err := scanAccessCode(tx.QueryRow(ctx,
			`SELECT `+accessCodeColumns+` FROM access_codes WHERE code = $1 FOR UPDATE`, code))
		if err != nil {
			return notFound(err, "access code", code)
		}
		if !c.IsValid(now) {
			return store.ErrAccessCodeExpired
		}
		if c.IsBound() {
			if c.DeviceID != deviceID {
				return store.ErrAccessCodeBound
			}
			bound = c
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE access_codes SET device_id = $2, bound_at = $3 WHERE id = $1`, c.ID, deviceID, now); err != nil {
			return fmt.Errorf("failed to bind access code: %w", err)
		}
		c.DeviceID = deviceID
		c.BoundAt = &now
		bound = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return bound, nil
}

// FindValidAccessCode returns an unexpired code bound to deviceID
func (r *Repository) FindValidAccessCode(ctx context.Context, deviceID string, now time.Time) (*models.AccessCode, error) {
	if deviceID == "" {
		return nil, store.ErrNotFound
	}
	c, err := scanAccessCode(r.db.Pool.QueryRow(ctx,
		`SELECT `+accessCodeColumns+` FROM access_codes WHERE device_id = $1 AND expires_at > $2 ORDER BY expires_at DESC LIMIT 1`,
		deviceID, now))
	if err != nil {
		return nil, notFound(err, "access code", deviceID)
	}
	return c, nil
}
