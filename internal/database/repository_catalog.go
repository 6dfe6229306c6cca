package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

// Categories

// CreateCategory inserts a category
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO categories (name, description, created_at) VALUES ($1, $2, $3) RETURNING id`,
		category.Name, category.Description, category.CreatedAt,
	).Scan(&category.ID)
	if isUniqueViolation(err) {
		return store.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category with its video count
func (r *Repository) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at,
		       (SELECT COUNT(*) FROM videos v WHERE v.category_id = c.id)
		FROM categories c
		WHERE c.id = $1
	`

	var c models.Category
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.VideoCount)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return &c, nil
}

// ListCategories lists categories by name
func (r *Repository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at,
		       (SELECT COUNT(*) FROM videos v WHERE v.category_id = c.id)
		FROM categories c
		ORDER BY c.name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.VideoCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

// UpdateCategory renames or redescribes a category
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE categories SET name = $2, description = $3 WHERE id = $1`,
		category.ID, category.Name, category.Description)
	if isUniqueViolation(err) {
		return store.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d: %w", category.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteCategory removes an unreferenced category
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT TRUE FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&exists); err != nil {
			return notFound(err, "category", id)
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE category_id = $1`, id).Scan(&count); err != nil {
			return fmt.Errorf("failed to count category videos: %w", err)
		}
		if count > 0 {
			return &store.CategoryInUseError{Count: count}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}

// CategoryStats counts videos by tier per category
func (r *Repository) CategoryStats(ctx context.Context) ([]*models.CategoryStat, error) {
	query := `
		SELECT c.id, c.name, c.description,
		       COUNT(v.id),
		       COUNT(v.id) FILTER (WHERE v.is_premium),
		       COUNT(v.id) FILTER (WHERE NOT v.is_premium)
		FROM categories c
		LEFT JOIN videos v ON v.category_id = c.id
		GROUP BY c.id, c.name, c.description
		ORDER BY c.name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}
	defer rows.Close()

	var stats []*models.CategoryStat
	for rows.Next() {
		var s models.CategoryStat
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Total, &s.Premium, &s.Free); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		stats = append(stats, &s)
	}

	return stats, rows.Err()
}

// Videos

const videoSelect = `
	SELECT v.id, v.title, v.embed_url, v.thumbnail_url, v.description, v.price,
	       v.is_premium, v.category_id, COALESCE(c.name, ''), v.created_at
	FROM videos v
	LEFT JOIN categories c ON c.id = v.category_id
`

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID, &v.Title, &v.EmbedURL, &v.ThumbnailURL, &v.Description, &v.Price,
		&v.IsPremium, &v.CategoryID, &v.CategoryName, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repository) queryVideos(ctx context.Context, query string, args ...interface{}) ([]*models.Video, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}

	return videos, rows.Err()
}

func categoryMissing(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// CreateVideo creates a new video record
func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO videos (title, embed_url, thumbnail_url, description, price, is_premium, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.Title, video.EmbedURL, video.ThumbnailURL, video.Description,
		video.Price, video.IsPremium, video.CategoryID, video.CreatedAt,
	).Scan(&video.ID)
	if categoryMissing(err) {
		return fmt.Errorf("category: %w", store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetVideo retrieves a video by ID
func (r *Repository) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	v, err := scanVideo(r.db.Pool.QueryRow(ctx, videoSelect+` WHERE v.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "video", id)
	}
	return v, nil
}

// UpdateVideo updates a video record
func (r *Repository) UpdateVideo(ctx context.Context, video *models.Video) error {
	query := `
		UPDATE videos
		SET title = $2, embed_url = $3, thumbnail_url = $4, description = $5,
		    price = $6, is_premium = $7, category_id = $8
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		video.ID, video.Title, video.EmbedURL, video.ThumbnailURL, video.Description,
		video.Price, video.IsPremium, video.CategoryID,
	)
	if categoryMissing(err) {
		return fmt.Errorf("category: %w", store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("video %d: %w", video.ID, store.ErrNotFound)
	}

	return nil
}

// DeleteVideo removes a video; its accesses go with it through ON DELETE CASCADE
func (r *Repository) DeleteVideo(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("video %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListVideos lists all videos newest first
func (r *Repository) ListVideos(ctx context.Context) ([]*models.Video, error) {
	return r.queryVideos(ctx, videoSelect+` ORDER BY v.created_at DESC, v.id DESC`)
}

// SearchVideos matches title or description case-insensitively
func (r *Repository) SearchVideos(ctx context.Context, query string) ([]*models.Video, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.queryVideos(ctx,
		videoSelect+` WHERE v.title ILIKE $1 OR v.description ILIKE $1 ORDER BY v.created_at DESC, v.id DESC`,
		pattern)
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
