package models

import (
	"math"
	"time"
)

// DefaultAccessDuration is how long a purchased grant stays valid
const DefaultAccessDuration = 48 * time.Hour

// GrantValid is the single validity rule for every time-bounded grant.
// A grant expiring exactly at now is already invalid.
func GrantValid(expiresAt, now time.Time) bool {
	return expiresAt.After(now)
}

// HoursRemaining returns the hours left until expiresAt rounded to one decimal,
// or 0 once the grant has lapsed
func HoursRemaining(expiresAt, now time.Time) float64 {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return math.Round(left.Hours()*10) / 10
}

// Access is a wallet-purchased grant for one user and one video
type Access struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	VideoID   int64     `json:"video_id" db:"video_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Video     *Video    `json:"video,omitempty" db:"-"`
}

// IsValid reports whether the access is unexpired at now
func (a *Access) IsValid(now time.Time) bool {
	return GrantValid(a.ExpiresAt, now)
}

// AccessCode is an admin-issued grant that unlocks every premium video
// for the single device that redeems it first
type AccessCode struct {
	ID        int64      `json:"id" db:"id"`
	Code      string     `json:"code" db:"code"`
	Note      string     `json:"note" db:"note"`
	DeviceID  string     `json:"device_id,omitempty" db:"device_id"`
	BoundAt   *time.Time `json:"bound_at,omitempty" db:"bound_at"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsValid reports whether the code is unexpired at now
func (c *AccessCode) IsValid(now time.Time) bool {
	return GrantValid(c.ExpiresAt, now)
}

// IsBound reports whether a device has claimed the code
func (c *AccessCode) IsBound() bool {
	return c.DeviceID != ""
}

// UnlocksFor reports whether the code grants access to deviceID at now
func (c *AccessCode) UnlocksFor(deviceID string, now time.Time) bool {
	return deviceID != "" && c.DeviceID == deviceID && c.IsValid(now)
}
