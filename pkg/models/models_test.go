package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount   decimal.Decimal
		expected string
	}{
		{decimal.Zero, "Rp 0"},
		{decimal.NewFromInt(500), "Rp 500"},
		{decimal.NewFromInt(5000), "Rp 5,000"},
		{decimal.NewFromInt(1250000), "Rp 1,250,000"},
		{decimal.RequireFromString("9999.6"), "Rp 10,000"},
		{decimal.NewFromInt(-20000), "-Rp 20,000"},
	}

	for _, tt := range tests {
		if got := FormatRupiah(tt.amount); got != tt.expected {
			t.Errorf("FormatRupiah(%s) = %q, expected %q", tt.amount, got, tt.expected)
		}
	}
}

func TestAmountFits(t *testing.T) {
	tests := []struct {
		amount   string
		expected bool
	}{
		{"50000", true},
		{"999999999999.99", true},
		{"999999999999.994", true},
		{"999999999999.995", false},
		{"1000000000000", false},
		{"5e15", false},
	}

	for _, tt := range tests {
		if got := AmountFits(decimal.RequireFromString(tt.amount)); got != tt.expected {
			t.Errorf("AmountFits(%s) = %v, expected %v", tt.amount, got, tt.expected)
		}
	}
}

func TestPaymentTransitions(t *testing.T) {
	pending := &Payment{Status: PaymentStatusPending}
	if !pending.CanTransitionTo(PaymentStatusCompleted) {
		t.Error("Pending payment should be approvable")
	}
	if !pending.CanTransitionTo(PaymentStatusRejected) {
		t.Error("Pending payment should be rejectable")
	}
	if pending.CanTransitionTo(PaymentStatusPending) {
		t.Error("Pending payment should not move back to pending")
	}

	for _, status := range []PaymentStatus{PaymentStatusCompleted, PaymentStatusRejected} {
		settled := &Payment{Status: status}
		if !settled.IsSettled() {
			t.Errorf("Payment in %s should be settled", status)
		}
		if settled.CanTransitionTo(PaymentStatusCompleted) || settled.CanTransitionTo(PaymentStatusRejected) {
			t.Errorf("Payment in %s should be final", status)
		}
	}
}

func TestUserChecks(t *testing.T) {
	user := &User{Role: UserRoleUser, IsActive: true, Balance: decimal.NewFromInt(20000)}

	if user.IsAdmin() {
		t.Error("Regular user reported as admin")
	}
	if !user.CanSignIn() {
		t.Error("Active user should be able to sign in")
	}
	if !user.CanAfford(decimal.NewFromInt(20000)) {
		t.Error("Exact balance should cover the price")
	}
	if user.CanAfford(decimal.NewFromInt(20001)) {
		t.Error("Balance should not cover a higher price")
	}

	user.IsDeleted = true
	if user.CanSignIn() {
		t.Error("Deleted user should not sign in")
	}
}

func TestUserPasswordHashHiddenFromJSON(t *testing.T) {
	data, err := json.Marshal(&User{Email: "viewer@example.com", PasswordHash: "secret-hash"})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, ok := result["password_hash"]; ok {
		t.Error("Password hash leaked into JSON")
	}
	if result["email"] != "viewer@example.com" {
		t.Errorf("Expected email viewer@example.com, got %v", result["email"])
	}
}

func TestHoursRemaining(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		expiresAt time.Time
		expected  float64
	}{
		{now.Add(48 * time.Hour), 48},
		{now.Add(90 * time.Minute), 1.5},
		{now.Add(-time.Hour), 0},
		{now, 0},
	}

	for _, tt := range tests {
		if got := HoursRemaining(tt.expiresAt, now); got != tt.expected {
			t.Errorf("HoursRemaining(%v) = %v, expected %v", tt.expiresAt.Sub(now), got, tt.expected)
		}
	}
}

func TestAccessCodeUnlocks(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	code := &AccessCode{Code: "ABCD-EFGH-IJKL", ExpiresAt: now.Add(24 * time.Hour)}

	if code.IsBound() {
		t.Error("Fresh code should be unbound")
	}
	if code.UnlocksFor("", now) {
		t.Error("Code should not unlock an unknown device")
	}

	code.DeviceID = "device-1"
	if !code.UnlocksFor("device-1", now) {
		t.Error("Code should unlock its bound device")
	}
	if code.UnlocksFor("device-2", now) {
		t.Error("Code should not unlock another device")
	}
	if code.UnlocksFor("device-1", now.Add(25*time.Hour)) {
		t.Error("Expired code should not unlock")
	}
}

func TestAnnouncementDefaults(t *testing.T) {
	a := &Announcement{Title: "Info", TextColor: "#ff0000"}
	a.ApplyDefaults()

	if a.TextColor != "#ff0000" {
		t.Errorf("Expected color to be kept, got %s", a.TextColor)
	}
	if a.TextStyle != DefaultAnnouncementStyle {
		t.Errorf("Expected style %s, got %s", DefaultAnnouncementStyle, a.TextStyle)
	}
}

func TestSplitByTier(t *testing.T) {
	videos := []*Video{
		{ID: 1, IsPremium: true},
		{ID: 2},
		{ID: 3, IsPremium: true},
	}

	free, premium := SplitByTier(videos)
	if len(free) != 1 || free[0].ID != 2 {
		t.Errorf("Unexpected free videos: %v", free)
	}
	if len(premium) != 2 {
		t.Errorf("Expected 2 premium videos, got %d", len(premium))
	}
}

func TestWebhookSubscriptions(t *testing.T) {
	all := &WebhookEndpoint{Name: "audit"}
	if !all.Subscribes(EventPaymentCompleted) {
		t.Error("Endpoint without filter should receive every event")
	}

	payments := &WebhookEndpoint{Name: "finance", Events: []string{EventPaymentCompleted, EventPaymentRejected}}
	if !payments.Subscribes(EventPaymentRejected) {
		t.Error("Endpoint should receive subscribed event")
	}
	if payments.Subscribes(EventUserRegistered) {
		t.Error("Endpoint should not receive unsubscribed event")
	}
}
