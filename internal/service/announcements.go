package service

import (
	"context"
	"strings"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/metrics"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
)

const recentAnnouncementWindow = 7 * 24 * time.Hour

// AnnouncementInput is the admin form for an announcement
type AnnouncementInput struct {
	Title     string
	Content   string
	TextColor string
	TextStyle string
	IsActive  bool
}

func (in *AnnouncementInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.TextColor = strings.TrimSpace(in.TextColor)
	in.TextStyle = strings.TrimSpace(in.TextStyle)
	if in.Title == "" || in.Content == "" {
		return invalid("Judul dan konten pengumuman wajib diisi!")
	}
	if tooLong(in.Title, models.MaxTitleLength) {
		return invalid("Judul pengumuman maksimal 200 karakter!")
	}
	if tooLong(in.TextColor, models.MaxStyleLength) || tooLong(in.TextStyle, models.MaxStyleLength) {
		return invalid("Warna dan gaya teks maksimal 20 karakter!")
	}
	return nil
}

// ActiveAnnouncements returns active banners newest first, served from Redis
// when a cache is configured
func (s *Service) ActiveAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	if s.cache != nil {
		list, found, err := s.cache.GetActiveAnnouncements(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Announcement cache read failed")
		}
		metrics.RecordCacheAccess("announcements", found)
		if found {
			return list, nil
		}
	}

	list, err := s.store.ListActiveAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cfg.AnnouncementCacheTTL > 0 {
		if err := s.cache.SetActiveAnnouncements(ctx, list, s.cfg.AnnouncementCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Announcement cache write failed")
		}
	}
	return list, nil
}

func (s *Service) invalidateAnnouncements(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAnnouncements(ctx); err != nil {
		s.logger.WithError(err).Warn("Announcement cache invalidation failed")
	}
}

// ListAnnouncements returns every announcement newest first
func (s *Service) ListAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	return s.store.ListAnnouncements(ctx)
}

// GetAnnouncement loads an announcement by id
func (s *Service) GetAnnouncement(ctx context.Context, id int64) (*models.Announcement, error) {
	return s.store.GetAnnouncement(ctx, id)
}

// CreateAnnouncement publishes a new banner
func (s *Service) CreateAnnouncement(ctx context.Context, in AnnouncementInput) (*models.Announcement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.Now()
	a := &models.Announcement{
		Title:     in.Title,
		Content:   in.Content,
		TextColor: in.TextColor,
		TextStyle: in.TextStyle,
		IsActive:  in.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.ApplyDefaults()
	if err := s.store.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.invalidateAnnouncements(ctx)
	return a, nil
}

// UpdateAnnouncement replaces the editable fields of an announcement
func (s *Service) UpdateAnnouncement(ctx context.Context, id int64, in AnnouncementInput) (*models.Announcement, error) {
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	a.Title = in.Title
	a.Content = in.Content
	a.TextColor = in.TextColor
	a.TextStyle = in.TextStyle
	a.IsActive = in.IsActive
	a.UpdatedAt = s.Now()
	a.ApplyDefaults()
	if err := s.store.UpdateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.invalidateAnnouncements(ctx)
	return a, nil
}

// ToggleAnnouncement flips the active flag
func (s *Service) ToggleAnnouncement(ctx context.Context, id int64) (*models.Announcement, error) {
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}

	a.IsActive = !a.IsActive
	a.UpdatedAt = s.Now()
	if err := s.store.UpdateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.invalidateAnnouncements(ctx)
	return a, nil
}

// DeleteAnnouncement removes an announcement
func (s *Service) DeleteAnnouncement(ctx context.Context, id int64) error {
	if err := s.store.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	s.invalidateAnnouncements(ctx)
	return nil
}

// AnnouncementStats counts announcements by state and those from the last week
func (s *Service) AnnouncementStats(ctx context.Context) (*models.AnnouncementStats, error) {
	list, err := s.store.ListAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	since := s.Now().Add(-recentAnnouncementWindow)
	stats := &models.AnnouncementStats{Total: len(list)}
	for _, a := range list {
		if a.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if !a.CreatedAt.Before(since) {
			stats.Recent++
		}
	}
	return stats, nil
}
