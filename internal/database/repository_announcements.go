package database

import (
	"context"
	"fmt"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/jackc/pgx/v5"
)

const announcementColumns = `id, title, content, text_color, text_style, is_active, created_at, updated_at`

func scanAnnouncement(row pgx.Row) (*models.Announcement, error) {
	var a models.Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.TextColor, &a.TextStyle, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) queryAnnouncements(ctx context.Context, query string) ([]*models.Announcement, error) {
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	var list []*models.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		list = append(list, a)
	}

	return list, rows.Err()
}

func (r *Repository) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt

	query := `
		INSERT INTO announcements (title, content, text_color, text_style, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		a.Title, a.Content, a.TextColor, a.TextStyle, a.IsActive, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (r *Repository) GetAnnouncement(ctx context.Context, id int64) (*models.Announcement, error) {
	a, err := scanAnnouncement(r.db.Pool.QueryRow(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "announcement", id)
	}
	return a, nil
}

func (r *Repository) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}

	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE announcements SET title = $2, content = $3, text_color = $4, text_style = $5, is_active = $6, updated_at = $7 WHERE id = $1`,
		a.ID, a.Title, a.Content, a.TextColor, a.TextStyle, a.IsActive, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("announcement %d: %w", a.ID, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteAnnouncement(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("announcement %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	return r.queryAnnouncements(ctx,
		`SELECT `+announcementColumns+` FROM announcements ORDER BY created_at DESC, id DESC`)
}

func (r *Repository) ListActiveAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	return r.queryAnnouncements(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE is_active ORDER BY created_at DESC, id DESC`)
}
