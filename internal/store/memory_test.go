package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newUser(t *testing.T, s *MemoryStore, email string, balance int64) *models.User {
	t.Helper()
	u := &models.User{Email: email, Balance: decimal.NewFromInt(balance), IsActive: true}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func newVideo(t *testing.T, s *MemoryStore, title string, price int64, categoryID *int64) *models.Video {
	t.Helper()
	v := &models.Video{Title: title, EmbedURL: "https://embed/" + title, Price: decimal.NewFromInt(price), IsPremium: price > 0, CategoryID: categoryID}
	require.NoError(t, s.CreateVideo(context.Background(), v))
	return v
}

func TestMemoryStore_EmailUniqueAmongLiveUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newUser(t, s, "a@example.com", 0)

	err := s.CreateUser(ctx, &models.User{Email: "A@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	require.NoError(t, s.SoftDeleteUser(ctx, u.ID, testNow))
	assert.NoError(t, s.CreateUser(ctx, &models.User{Email: "a@example.com"}))

	deleted, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.False(t, deleted.IsActive)
	require.NotNil(t, deleted.DeletedAt)
}

func TestMemoryStore_PurchaseAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newUser(t, s, "buyer@example.com", 10000)
	v := newVideo(t, s, "premium", 7500, nil)
	expires := testNow.Add(models.DefaultAccessDuration)

	access, err := s.PurchaseAccess(ctx, u.ID, v.ID, v.Price, testNow, expires)
	require.NoError(t, err)
	assert.Equal(t, expires, access.ExpiresAt)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(2500)))

	_, err = s.PurchaseAccess(ctx, u.ID, v.ID, v.Price, testNow, expires)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(2500)))

	list, err := s.ListValidAccesses(ctx, u.ID, testNow)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "premium", list[0].Video.Title)
}

func TestMemoryStore_ConcurrentPurchasesNeverOverdraw(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newUser(t, s, "race@example.com", 10000)
	v := newVideo(t, s, "premium", 3000, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.PurchaseAccess(ctx, u.ID, v.ID, v.Price, testNow, testNow.Add(time.Hour))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, succeeded)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestMemoryStore_AccessValidityBoundary(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newUser(t, s, "edge@example.com", 100)
	v := newVideo(t, s, "premium", 100, nil)
	_, err := s.PurchaseAccess(ctx, u.ID, v.ID, v.Price, testNow, testNow.Add(time.Hour))
	require.NoError(t, err)

	_, err = s.FindValidAccess(ctx, u.ID, v.ID, testNow.Add(time.Hour-time.Nanosecond))
	assert.NoError(t, err)

	_, err = s.FindValidAccess(ctx, u.ID, v.ID, testNow.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SettlePaymentOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newUser(t, s, "payer@example.com", 0)
	p := &models.Payment{UserID: u.ID, Amount: decimal.NewFromInt(50000), Method: "dana", SenderName: "Budi"}
	require.NoError(t, s.CreatePayment(ctx, p))
	assert.Equal(t, models.PaymentStatusPending, p.Status)

	settled, err := s.SettlePayment(ctx, p.ID, models.PaymentStatusCompleted, "", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, settled.Status)
	assert.Equal(t, "payer@example.com", settled.UserEmail)

	_, err = s.SettlePayment(ctx, p.ID, models.PaymentStatusCompleted, "", testNow)
	assert.ErrorIs(t, err, ErrPaymentSettled)

	_, err = s.SettlePayment(ctx, p.ID, models.PaymentStatusRejected, "late", testNow)
	assert.ErrorIs(t, err, ErrPaymentSettled)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(50000)))
}

func TestMemoryStore_RejectDoesNotCredit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newUser(t, s, "rejected@example.com", 0)
	p := &models.Payment{UserID: u.ID, Amount: decimal.NewFromInt(5000), Method: "ovo", SenderName: "X"}
	require.NoError(t, s.CreatePayment(ctx, p))

	settled, err := s.SettlePayment(ctx, p.ID, models.PaymentStatusRejected, "blurry", testNow)
	require.NoError(t, err)
	assert.Equal(t, "blurry", settled.AdminNotes)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestMemoryStore_CategoryInUse(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c := &models.Category{Name: "Drama"}
	require.NoError(t, s.CreateCategory(ctx, c))
	assert.ErrorIs(t, s.CreateCategory(ctx, &models.Category{Name: "drama"}), ErrCategoryExists)

	v := newVideo(t, s, "ep1", 0, &c.ID)
	newVideo(t, s, "ep2", 1000, &c.ID)

	err := s.DeleteCategory(ctx, c.ID)
	require.ErrorIs(t, err, ErrCategoryInUse)
	var inUse *CategoryInUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, 2, inUse.Count)

	stats, err := s.CategoryStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Total)
	assert.Equal(t, 1, stats[0].Premium)
	assert.Equal(t, 1, stats[0].Free)

	got, err := s.GetVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drama", got.CategoryName)
}

func TestMemoryStore_DeleteVideoCascadesAccesses(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newUser(t, s, "viewer@example.com", 5000)
	v := newVideo(t, s, "premium", 1000, nil)
	_, err := s.PurchaseAccess(ctx, u.ID, v.ID, v.Price, testNow, testNow.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, s.DeleteVideo(ctx, v.ID))

	list, err := s.ListValidAccesses(ctx, u.ID, testNow)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore_SearchVideos(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	newVideo(t, s, "Night Drive", 0, nil)
	v := &models.Video{Title: "Morning", Description: "a DRIVE at dawn", EmbedURL: "x"}
	require.NoError(t, s.CreateVideo(ctx, v))
	newVideo(t, s, "Other", 0, nil)

	found, err := s.SearchVideos(ctx, "drive")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestMemoryStore_BindAccessCode(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	code := &models.AccessCode{Code: "ABC123", ExpiresAt: testNow.Add(24 * time.Hour)}
	require.NoError(t, s.CreateAccessCode(ctx, code))
	assert.ErrorIs(t, s.CreateAccessCode(ctx, &models.AccessCode{Code: "ABC123"}), ErrAccessCodeExists)

	bound, err := s.BindAccessCode(ctx, "ABC123", "device-a", testNow)
	require.NoError(t, err)
	assert.Equal(t, "device-a", bound.DeviceID)

	_, err = s.BindAccessCode(ctx, "ABC123", "device-a", testNow)
	assert.NoError(t, err)

	_, err = s.BindAccessCode(ctx, "ABC123", "device-b", testNow)
	assert.ErrorIs(t, err, ErrAccessCodeBound)

	_, err = s.BindAccessCode(ctx, "nope", "device-a", testNow)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindValidAccessCode(ctx, "device-a", testNow)
	assert.NoError(t, err)
	_, err = s.FindValidAccessCode(ctx, "device-a", testNow.Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.BindAccessCode(ctx, "ABC123", "device-a", testNow.Add(25*time.Hour))
	assert.ErrorIs(t, err, ErrAccessCodeExpired)
}

func TestMemoryStore_Totals(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := newUser(t, s, "t@example.com", 0)
	newVideo(t, s, "free", 0, nil)
	newVideo(t, s, "paid", 100, nil)
	require.NoError(t, s.CreateAnnouncement(ctx, &models.Announcement{Title: "a", Content: "b", IsActive: true}))
	require.NoError(t, s.CreateAnnouncement(ctx, &models.Announcement{Title: "c", Content: "d"}))
	require.NoError(t, s.CreditWallet(ctx, u.ID, decimal.NewFromInt(20000), &models.Payment{
		Amount: decimal.NewFromInt(20000), Status: models.PaymentStatusCompleted, Method: models.PaymentMethodAdminCredit, SenderName: models.SenderAdmin,
	}))
	require.NoError(t, s.CreatePayment(ctx, &models.Payment{UserID: u.ID, Amount: decimal.NewFromInt(5000)}))

	totals, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Users)
	assert.Equal(t, 2, totals.Videos)
	assert.Equal(t, 1, totals.PremiumVideos)
	assert.Equal(t, 2, totals.Announcements)
	assert.Equal(t, 1, totals.ActiveAnnouncements)
	assert.Equal(t, 1, totals.PendingPayments)
	assert.True(t, totals.Revenue.Equal(decimal.NewFromInt(20000)))
}
