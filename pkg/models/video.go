package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Video represents an embeddable catalog entry
type Video struct {
	ID           int64           `json:"id" db:"id"`
	Title        string          `json:"title" db:"title"`
	EmbedURL     string          `json:"embed_url" db:"embed_url"`
	ThumbnailURL string          `json:"thumbnail_url" db:"thumbnail_url"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	IsPremium    bool            `json:"is_premium" db:"is_premium"`
	CategoryID   *int64          `json:"category_id,omitempty" db:"category_id"`
	CategoryName string          `json:"category_name,omitempty" db:"-"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Category groups videos
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	VideoCount  int       `json:"video_count" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SplitByTier partitions videos into free and premium, keeping order
func SplitByTier(videos []*Video) (free, premium []*Video) {
	for _, v := range videos {
		if v.IsPremium {
			premium = append(premium, v)
		} else {
			free = append(free, v)
		}
	}
	return free, premium
}
