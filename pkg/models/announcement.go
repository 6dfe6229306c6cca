package models

import "time"

const (
	DefaultAnnouncementColor = "#ffffff"
	DefaultAnnouncementStyle = "normal"
)

// Announcement is a site-wide banner shown while active
type Announcement struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	TextColor string    `json:"text_color" db:"text_color"`
	TextStyle string    `json:"text_style" db:"text_style"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ApplyDefaults fills empty styling fields
func (a *Announcement) ApplyDefaults() {
	if a.TextColor == "" {
		a.TextColor = DefaultAnnouncementColor
	}
	if a.TextStyle == "" {
		a.TextStyle = DefaultAnnouncementStyle
	}
}
