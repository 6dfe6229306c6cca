package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrCategoryExists      = errors.New("category already exists")
	ErrCategoryInUse       = errors.New("category still has videos")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPaymentSettled      = errors.New("payment already processed")
	ErrAccessCodeExists    = errors.New("access code already exists")
	ErrAccessCodeExpired   = errors.New("access code expired")
	ErrAccessCodeBound     = errors.New("access code bound to another device")
)

// CategoryInUseError carries how many videos still reference a category
type CategoryInUseError struct {
	Count int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category still has %d videos", e.Count)
}

func (e *CategoryInUseError) Unwrap() error {
	return ErrCategoryInUse
}

// Users persists accounts and wallets
type Users interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
	SoftDeleteUser(ctx context.Context, id int64, at time.Time) error
	// CreditWallet adds amount to the balance and records the completed
	// payment in one transaction
	CreditWallet(ctx context.Context, userID int64, amount decimal.Decimal, payment *models.Payment) error
}

// Categories persists video categories
type Categories interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	CategoryStats(ctx context.Context) ([]*models.CategoryStat, error)
}

// Videos persists the catalog
type Videos interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id int64) (*models.Video, error)
	UpdateVideo(ctx context.Context, video *models.Video) error
	DeleteVideo(ctx context.Context, id int64) error
	ListVideos(ctx context.Context) ([]*models.Video, error)
	SearchVideos(ctx context.Context, query string) ([]*models.Video, error)
}

// Accesses persists purchased grants
type Accesses interface {
	FindValidAccess(ctx context.Context, userID, videoID int64, now time.Time) (*models.Access, error)
	ListValidAccesses(ctx context.Context, userID int64, now time.Time) ([]*models.Access, error)
	// PurchaseAccess debits price and inserts the grant in one transaction,
	// failing with ErrInsufficientBalance when the wallet does not cover it
	PurchaseAccess(ctx context.Context, userID, videoID int64, price decimal.Decimal, now, expiresAt time.Time) (*models.Access, error)
}

// Payments persists top-ups
type Payments interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	GetPaymentByProof(ctx context.Context, proofRef string) (*models.Payment, error)
	ListPayments(ctx context.Context, status models.PaymentStatus) ([]*models.Payment, error)
	ListUserPayments(ctx context.Context, userID int64) ([]*models.Payment, error)
	CountPayments(ctx context.Context) (*models.PaymentCounts, error)
	CompletedPaymentsSince(ctx context.Context, since time.Time) ([]*models.Payment, error)
	RecentCompletedPayments(ctx context.Context, limit int) ([]*models.Payment, error)
	// SettlePayment moves a pending payment to status, crediting the owner on
	// completion. A settled payment yields ErrPaymentSettled.
	SettlePayment(ctx context.Context, id int64, status models.PaymentStatus, notes string, now time.Time) (*models.Payment, error)
}

// Announcements persists site banners
type Announcements interface {
	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	GetAnnouncement(ctx context.Context, id int64) (*models.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *models.Announcement) error
	DeleteAnnouncement(ctx context.Context, id int64) error
	ListAnnouncements(ctx context.Context) ([]*models.Announcement, error)
	ListActiveAnnouncements(ctx context.Context) ([]*models.Announcement, error)
}

// AccessCodes persists device-bound codes
type AccessCodes interface {
	CreateAccessCode(ctx context.Context, code *models.AccessCode) error
	ListAccessCodes(ctx context.Context) ([]*models.AccessCode, error)
	DeleteAccessCode(ctx context.Context, id int64) error
	// BindAccessCode claims code for deviceID on first use
	BindAccessCode(ctx context.Context, code, deviceID string, now time.Time) (*models.AccessCode, error)
	FindValidAccessCode(ctx context.Context, deviceID string, now time.Time) (*models.AccessCode, error)
}

// Store is the full persistence surface of the application
type Store interface {
	Users
	Categories
	Videos
	Accesses
	Payments
	Announcements
	AccessCodes
	Totals(ctx context.Context) (*models.Totals, error)
	Ping(ctx context.Context) error
}
