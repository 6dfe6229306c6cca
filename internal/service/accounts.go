package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RMBLOGG/StreamFliix/internal/metrics"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/internal/tracing"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// NormalizeEmail lowercases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user account with an empty wallet
func (s *Service) Register(ctx context.Context, email, password, confirm string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("Email tidak valid!")
	}
	if tooLong(email, models.MaxEmailLength) {
		return nil, invalid("Email maksimal 120 karakter!")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("Password harus minimal 6 karakter!")
	}
	if password != confirm {
		return nil, invalid("Password tidak cocok!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Balance:      decimal.Zero,
		Role:         models.UserRoleUser,
		IsActive:     true,
		CreatedAt:    s.Now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	metrics.RecordRegistration()
	s.emit(ctx, models.EventUserRegistered, map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

// Authenticate checks credentials of a live account
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordLogin(false)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordLogin(false)
		return nil, ErrInvalidCredentials
	}
	if !user.CanSignIn() {
		metrics.RecordLogin(false)
		return nil, ErrAccountDisabled
	}

	metrics.RecordLogin(true)
	return user, nil
}

// EnsureAdmin creates the configured administrator when no account uses the email
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, nil
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Balance:      decimal.Zero,
		Role:         models.UserRoleAdmin,
		IsActive:     true,
		CreatedAt:    s.Now(),
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

// GetUser loads a user by id
func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// ListUsers returns live accounts, newest first
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.ListUsers(ctx)
}

// ToggleUser flips the active flag of another user's account
func (s *Service) ToggleUser(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	if actor.ID == id {
		return nil, ErrSelfAction
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted {
		return nil, store.ErrNotFound
	}

	user.IsActive = !user.IsActive
	if err := s.store.SetUserActive(ctx, id, user.IsActive); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser soft-deletes another user's account
func (s *Service) DeleteUser(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	if actor.ID == id {
		return nil, ErrSelfAction
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SoftDeleteUser(ctx, id, s.Now()); err != nil {
		return nil, err
	}
	return user, nil
}

// AddBalance credits a wallet directly and records an audit payment
func (s *Service) AddBalance(ctx context.Context, userID int64, amount decimal.Decimal) (*models.User, error) {
	span, ctx := tracing.StartSpan(ctx, "service.AddBalance")
	tracing.SetTag(span, "user_id", userID)
	var err error
	defer func() { tracing.FinishSpan(span, err) }()

	if !amount.IsPositive() {
		err = invalid("Jumlah saldo harus lebih dari 0!")
		return nil, err
	}
	if !models.AmountFits(amount) {
		err = invalid("Jumlah saldo terlalu besar!")
		return nil, err
	}

	now := s.Now()
	payment := &models.Payment{
		Amount:     amount,
		Status:     models.PaymentStatusCompleted,
		Method:     models.PaymentMethodAdminCredit,
		SenderName: models.SenderAdmin,
		AdminNotes: "Saldo ditambahkan oleh admin",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = s.store.CreditWallet(ctx, userID, amount, payment); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics.RecordWalletCredit(amount.InexactFloat64())
	s.logger.LogPaymentEvent(payment.ID, userID, "admin_credit", amount.String(), nil)
	s.emit(ctx, models.EventWalletCredited, paymentEvent(payment))
	return user, nil
}
