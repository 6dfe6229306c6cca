package service

import (
	"context"
	"errors"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/metrics"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/internal/tracing"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
)

// WatchOutcome says how a watch request was resolved
type WatchOutcome int

const (
	// WatchGranted means the viewer already had access
	WatchGranted WatchOutcome = iota
	// WatchPurchased means access was bought from the wallet just now
	WatchPurchased
	// WatchNeedsPayment means the wallet does not cover the price
	WatchNeedsPayment
)

// WatchResult is the outcome of Watch
type WatchResult struct {
	Outcome WatchOutcome
	Video   *models.Video
	Access  *models.Access
}

// HasAccess reports whether user may play video. Free videos are open to
// everyone; premium ones need a valid purchase or an access code bound to
// deviceID.
func (s *Service) HasAccess(ctx context.Context, userID int64, video *models.Video, deviceID string) (bool, error) {
	if !video.IsPremium {
		return true, nil
	}

	now := s.Now()
	if userID != 0 {
		_, err := s.store.FindValidAccess(ctx, userID, video.ID, now)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
	}

	if deviceID != "" {
		_, err := s.store.FindValidAccessCode(ctx, deviceID, now)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
	}

	return false, nil
}

// Watch resolves a play request, buying access from the wallet when needed
func (s *Service) Watch(ctx context.Context, userID, videoID int64, deviceID string) (*WatchResult, error) {
	span, ctx := tracing.StartSpan(ctx, "service.Watch")
	defer span.Finish()
	tracing.SetTag(span, "user_id", userID)
	tracing.SetTag(span, "video_id", videoID)

	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	ok, err := s.HasAccess(ctx, userID, video, deviceID)
	if err != nil {
		tracing.LogError(span, err)
		return nil, err
	}
	if ok {
		return &WatchResult{Outcome: WatchGranted, Video: video}, nil
	}
	if userID == 0 {
		return &WatchResult{Outcome: WatchNeedsPayment, Video: video}, nil
	}

	now := s.Now()
	access, err := s.store.PurchaseAccess(ctx, userID, video.ID, video.Price, now, now.Add(s.cfg.AccessDuration))
	if errors.Is(err, store.ErrInsufficientBalance) {
		metrics.RecordAccessPurchase("insufficient_balance", 0)
		return &WatchResult{Outcome: WatchNeedsPayment, Video: video}, nil
	}
	if err != nil {
		tracing.LogError(span, err)
		metrics.RecordAccessPurchase("error", 0)
		return nil, err
	}

	metrics.RecordAccessPurchase("purchased", video.Price.InexactFloat64())
	s.logger.LogAccessGrant(userID, video.ID, "wallet", access.ExpiresAt)
	s.emit(ctx, models.EventAccessPurchased, models.AccessEvent{
		UserID:    userID,
		VideoID:   video.ID,
		Price:     video.Price.String(),
		ExpiresAt: access.ExpiresAt,
	})

	access.Video = video
	return &WatchResult{Outcome: WatchPurchased, Video: video, Access: access}, nil
}

// ActiveAccesses lists the user's unexpired purchases with their videos
func (s *Service) ActiveAccesses(ctx context.Context, userID int64) ([]*models.Access, error) {
	return s.store.ListValidAccesses(ctx, userID, s.Now())
}

// HoursRemaining is the rounded hours left on a grant as of now
func (s *Service) HoursRemaining(expiresAt time.Time) float64 {
	return models.HoursRemaining(expiresAt, s.Now())
}
