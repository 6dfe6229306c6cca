package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/metrics"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/google/uuid"
)

const (
	fallbackAccessCodeDuration = 30 * 24 * time.Hour
	codeGenerationAttempts     = 3
)

// NewAccessCode returns a random code formatted as XXXX-XXXX-XXXX
func NewAccessCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return raw[0:4] + "-" + raw[4:8] + "-" + raw[8:12]
}

// NormalizeAccessCode uppercases and trims user input
func NormalizeAccessCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateAccessCode issues a new unbound code valid for duration. A zero
// duration uses the configured default.
func (s *Service) CreateAccessCode(ctx context.Context, duration time.Duration, note string) (*models.AccessCode, error) {
	if duration < 0 {
		return nil, invalid("Durasi kode akses tidak valid!")
	}
	note = strings.TrimSpace(note)
	if tooLong(note, models.MaxNoteLength) {
		return nil, invalid("Catatan maksimal 200 karakter!")
	}
	if duration == 0 {
		duration = s.cfg.AccessCodeDuration
	}
	if duration <= 0 {
		duration = fallbackAccessCodeDuration
	}

	now := s.Now()
	var err error
	for i := 0; i < codeGenerationAttempts; i++ {
		code := &models.AccessCode{
			Code:      NewAccessCode(),
			Note:      note,
			ExpiresAt: now.Add(duration),
			CreatedAt: now,
		}
		if err = s.store.CreateAccessCode(ctx, code); err == nil {
			return code, nil
		}
		if !errors.Is(err, store.ErrAccessCodeExists) {
			return nil, err
		}
	}
	return nil, err
}

// ListAccessCodes returns every code newest first
func (s *Service) ListAccessCodes(ctx context.Context) ([]*models.AccessCode, error) {
	return s.store.ListAccessCodes(ctx)
}

// DeleteAccessCode revokes a code
func (s *Service) DeleteAccessCode(ctx context.Context, id int64) error {
	return s.store.DeleteAccessCode(ctx, id)
}

// RedeemAccessCode binds code to deviceID on first use. Later redemptions
// from the same device succeed; other devices get store.ErrAccessCodeBound.
func (s *Service) RedeemAccessCode(ctx context.Context, userID int64, code, deviceID string) (*models.AccessCode, error) {
	code = NormalizeAccessCode(code)
	if code == "" {
		return nil, invalid("Kode akses wajib diisi!")
	}
	if deviceID == "" {
		return nil, invalid("Perangkat tidak dikenali, aktifkan cookie lalu coba lagi.")
	}

	ac, err := s.store.BindAccessCode(ctx, code, deviceID, s.Now())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			metrics.RecordAccessCodeRedemption("not_found")
		case errors.Is(err, store.ErrAccessCodeExpired):
			metrics.RecordAccessCodeRedemption("expired")
		case errors.Is(err, store.ErrAccessCodeBound):
			metrics.RecordAccessCodeRedemption("bound_elsewhere")
		default:
			metrics.RecordAccessCodeRedemption("error")
		}
		return nil, err
	}

	metrics.RecordAccessCodeRedemption("redeemed")
	s.logger.LogAccessGrant(userID, 0, "access_code", ac.ExpiresAt)
	s.emit(ctx, models.EventAccessCodeRedeemed, models.AccessEvent{
		UserID:    userID,
		Code:      ac.Code,
		ExpiresAt: ac.ExpiresAt,
	})
	return ac, nil
}

// DeviceAccessCode returns the valid code bound to deviceID, if any
func (s *Service) DeviceAccessCode(ctx context.Context, deviceID string) (*models.AccessCode, error) {
	if deviceID == "" {
		return nil, store.ErrNotFound
	}
	return s.store.FindValidAccessCode(ctx, deviceID, s.Now())
}
