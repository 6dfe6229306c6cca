package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/billing"
	"github.com/RMBLOGG/StreamFliix/internal/metrics"
	"github.com/RMBLOGG/StreamFliix/internal/storage"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/internal/tracing"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
)

const settleLockTTL = 10 * time.Second

// TopupInput is a manual transfer top-up request
type TopupInput struct {
	Amount     decimal.Decimal
	Method     string
	SenderName string
	ProofName  string
	Proof      io.Reader
	ProofSize  int64
}

// MinTopup is the smallest accepted top-up
func (s *Service) MinTopup() decimal.Decimal {
	return decimal.NewFromInt(s.cfg.MinTopup)
}

func (s *Service) allowedProof(name string) bool {
	ext := storage.Extension(name)
	for _, allowed := range s.cfg.AllowedProofExtension {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// ProofObjectName builds the stored name of a proof upload
func ProofObjectName(userID int64, at time.Time, original string) string {
	base := storage.SanitizeFilename(original)
	if ext := storage.Extension(original); ext != "" && storage.Extension(base) != ext {
		base += "." + ext
	}
	return fmt.Sprintf("%d_%s_%s", userID, at.UTC().Format("20060102_150405"), base)
}

// SubmitTopup stores the transfer proof and opens a pending payment
func (s *Service) SubmitTopup(ctx context.Context, user *models.User, in TopupInput) (*models.Payment, error) {
	if in.Amount.LessThan(s.MinTopup()) {
		return nil, invalid(fmt.Sprintf("Minimum top up adalah %s!", models.FormatRupiah(s.MinTopup())))
	}
	if !models.AmountFits(in.Amount) {
		return nil, invalid("Jumlah top up terlalu besar!")
	}
	in.SenderName = strings.TrimSpace(in.SenderName)
	if in.SenderName == "" {
		return nil, invalid("Nama pengirim harus diisi!")
	}
	if tooLong(in.SenderName, models.MaxSenderNameLength) {
		return nil, invalid("Nama pengirim maksimal 100 karakter!")
	}
	in.Method = strings.ToLower(strings.TrimSpace(in.Method))
	if _, ok := s.cfg.PaymentAccount(in.Method); !ok {
		return nil, invalid("Pilih metode pembayaran!")
	}
	if in.Proof == nil || strings.TrimSpace(in.ProofName) == "" {
		return nil, invalid("Bukti transfer harus diupload!")
	}
	if !s.allowedProof(in.ProofName) {
		return nil, invalid("Format file tidak didukung! Gunakan PNG, JPG, JPEG, GIF, PDF, atau WEBP.")
	}
	if s.proofs == nil {
		return nil, errors.New("proof storage not configured")
	}

	now := s.Now()
	name := ProofObjectName(user.ID, now, in.ProofName)

	start := time.Now()
	err := s.proofs.Save(ctx, name, in.Proof, in.ProofSize, storage.ContentType(name))
	s.logger.LogStorageOperation("save_proof", "", name, in.ProofSize, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to store payment proof: %w", err)
	}

	payment := &models.Payment{
		UserID:     user.ID,
		Amount:     in.Amount,
		Status:     models.PaymentStatusPending,
		Method:     in.Method,
		ProofRef:   name,
		SenderName: in.SenderName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		if derr := s.proofs.Delete(ctx, name); derr != nil {
			s.logger.WithError(derr).Warn("Failed to remove orphaned proof")
		}
		return nil, err
	}

	metrics.RecordTopupSubmitted(payment.Method)
	s.logger.LogPaymentEvent(payment.ID, user.ID, "submitted", payment.Amount.String(), map[string]interface{}{
		"method": payment.Method,
	})
	s.emit(ctx, models.EventPaymentSubmitted, paymentEvent(payment))
	return payment, nil
}

// StartCardTopup opens a pending card payment and returns the hosted checkout
func (s *Service) StartCardTopup(ctx context.Context, user *models.User, amount decimal.Decimal) (*billing.Session, *models.Payment, error) {
	if s.checkout == nil {
		return nil, nil, ErrCardPaymentsDisabled
	}
	if amount.LessThan(s.MinTopup()) {
		return nil, nil, invalid(fmt.Sprintf("Minimum top up adalah %s!", models.FormatRupiah(s.MinTopup())))
	}
	if !models.AmountFits(amount) {
		return nil, nil, invalid("Jumlah top up terlalu besar!")
	}

	session, err := s.checkout.CreateSession(ctx, user, amount)
	if err != nil {
		return nil, nil, err
	}

	now := s.Now()
	payment := &models.Payment{
		UserID:     user.ID,
		Amount:     amount,
		Status:     models.PaymentStatusPending,
		Method:     models.PaymentMethodCard,
		ProofRef:   session.ID,
		SenderName: user.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, nil, err
	}

	metrics.RecordTopupSubmitted(payment.Method)
	s.emit(ctx, models.EventPaymentSubmitted, paymentEvent(payment))
	return session, payment, nil
}

// SettleCardPayment finalizes the card payment opened for sessionID.
// Repeated notifications for a settled payment succeed without effect.
func (s *Service) SettleCardPayment(ctx context.Context, sessionID string, paid bool) error {
	payment, err := s.store.GetPaymentByProof(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && payment.Method != models.PaymentMethodCard) {
		return billing.ErrUnknownSession
	}
	if err != nil {
		return err
	}

	status, notes := models.PaymentStatusCompleted, "Stripe checkout "+sessionID
	if !paid {
		status, notes = models.PaymentStatusRejected, "Stripe checkout tidak selesai"
	}

	_, err = s.settle(ctx, payment.ID, status, notes)
	if errors.Is(err, store.ErrPaymentSettled) {
		return nil
	}
	return err
}

// ApprovePayment completes a pending payment and credits the owner
func (s *Service) ApprovePayment(ctx context.Context, id int64) (*models.Payment, error) {
	return s.settle(ctx, id, models.PaymentStatusCompleted, "")
}

// RejectPayment rejects a pending payment without crediting
func (s *Service) RejectPayment(ctx context.Context, id int64, notes string) (*models.Payment, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = models.DefaultRejectionNote
	}
	return s.settle(ctx, id, models.PaymentStatusRejected, notes)
}

func (s *Service) settle(ctx context.Context, id int64, status models.PaymentStatus, notes string) (*models.Payment, error) {
	span, ctx := tracing.StartSpan(ctx, "service.SettlePayment")
	defer span.Finish()
	tracing.SetTag(span, "payment_id", id)
	tracing.SetTag(span, "status", string(status))

	if s.cache != nil {
		resource := "payment:" + strconv.FormatInt(id, 10)
		locked, err := s.cache.AcquireLock(ctx, resource, settleLockTTL)
		switch {
		case err != nil:
			s.logger.WithError(err).Warn("Settle lock unavailable, relying on row lock")
		case !locked:
			return nil, store.ErrPaymentSettled
		default:
			defer func() {
				if err := s.cache.ReleaseLock(context.Background(), resource); err != nil {
					s.logger.WithError(err).Warn("Failed to release settle lock")
				}
			}()
		}
	}

	payment, err := s.store.SettlePayment(ctx, id, status, notes, s.Now())
	if err != nil {
		if !errors.Is(err, store.ErrPaymentSettled) {
			tracing.LogError(span, err)
		}
		return payment, err
	}

	credited := 0.0
	if status == models.PaymentStatusCompleted {
		credited = payment.Amount.InexactFloat64()
	}
	metrics.RecordPaymentSettled(string(status), credited)
	s.logger.LogPaymentEvent(payment.ID, payment.UserID, string(status), payment.Amount.String(), nil)

	eventType := models.EventPaymentCompleted
	if status == models.PaymentStatusRejected {
		eventType = models.EventPaymentRejected
	}
	s.emit(ctx, eventType, paymentEvent(payment))
	return payment, nil
}

// BulkApprove approves every pending payment in ids and reports how many
// moved and their total. Settled or unknown ids are skipped.
func (s *Service) BulkApprove(ctx context.Context, ids []int64) (int, decimal.Decimal, error) {
	count, total := 0, decimal.Zero
	for _, id := range ids {
		payment, err := s.settle(ctx, id, models.PaymentStatusCompleted, "")
		if errors.Is(err, store.ErrPaymentSettled) || errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return count, total, err
		}
		count++
		total = total.Add(payment.Amount)
	}
	return count, total, nil
}

// NormalizePaymentStatus maps a filter value to a status, "" meaning all
func NormalizePaymentStatus(filter string) models.PaymentStatus {
	switch status := models.PaymentStatus(strings.ToLower(strings.TrimSpace(filter))); status {
	case models.PaymentStatusPending, models.PaymentStatusCompleted, models.PaymentStatusRejected:
		return status
	default:
		return ""
	}
}

// ListPayments lists payments newest first, optionally by status
func (s *Service) ListPayments(ctx context.Context, filter string) ([]*models.Payment, error) {
	return s.store.ListPayments(ctx, NormalizePaymentStatus(filter))
}

// UserPayments lists one user's payments newest first
func (s *Service) UserPayments(ctx context.Context, userID int64) ([]*models.Payment, error) {
	return s.store.ListUserPayments(ctx, userID)
}

// GetPayment loads a payment by id
func (s *Service) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	return s.store.GetPayment(ctx, id)
}

// PaymentCounts counts payments by status
func (s *Service) PaymentCounts(ctx context.Context) (*models.PaymentCounts, error) {
	counts, err := s.store.CountPayments(ctx)
	if err != nil {
		return nil, err
	}
	metrics.UpdatePendingPayments(counts.Pending)
	return counts, nil
}

// PaymentInstructions explains how to transfer amount with method. Unknown
// methods fall back to the default account.
func (s *Service) PaymentInstructions(method string, amount decimal.Decimal, email string) models.PaymentInstructions {
	account, ok := s.cfg.PaymentAccount(method)
	if !ok {
		account, ok = s.cfg.PaymentAccount(s.cfg.DefaultPaymentMethod)
	}
	if !ok && len(s.cfg.PaymentAccounts) > 0 {
		account = s.cfg.PaymentAccounts[0]
	}

	reference := "Top up - " + email
	return models.PaymentInstructions{
		Method:        account.Method,
		AccountNumber: account.AccountNumber,
		AccountName:   account.AccountName,
		Amount:        models.FormatRupiah(amount),
		Reference:     reference,
		Instructions: []string{
			fmt.Sprintf("Transfer ke %s: %s", account.Label, account.AccountNumber),
			"A/N: " + account.AccountName,
			"Jumlah: " + models.FormatRupiah(amount),
			fmt.Sprintf("Pesan: %q", reference),
			"Setelah transfer, upload bukti di form top up",
		},
	}
}

// ExportPaymentsCSV writes every payment as CSV, times in the display timezone
func (s *Service) ExportPaymentsCSV(ctx context.Context, w io.Writer) error {
	payments, err := s.store.ListPayments(ctx, "")
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Email", "Jumlah", "Metode", "Status", "Pengirim", "Catatan Admin", "Tanggal"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, p := range payments {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.UserEmail,
			p.Amount.StringFixed(0),
			p.Method,
			string(p.Status),
			p.SenderName,
			p.AdminNotes,
			p.CreatedAt.In(s.loc).Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// OpenProof streams a proof to its owner or to an admin
func (s *Service) OpenProof(ctx context.Context, viewer *models.User, name string) (io.ReadCloser, error) {
	if !viewer.IsAdmin() {
		payment, err := s.store.GetPaymentByProof(ctx, name)
		if err != nil || payment.UserID != viewer.ID {
			return nil, ErrProofForbidden
		}
	}
	if s.proofs == nil {
		return nil, storage.ErrObjectNotFound
	}
	return s.proofs.Open(ctx, name)
}
