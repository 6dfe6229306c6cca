package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/RMBLOGG/StreamFliix/internal/billing"
	"github.com/RMBLOGG/StreamFliix/internal/config"
	"github.com/RMBLOGG/StreamFliix/internal/logging"
	"github.com/RMBLOGG/StreamFliix/internal/storage"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountDisabled      = errors.New("account disabled")
	ErrSelfAction           = errors.New("cannot apply to own account")
	ErrCardPaymentsDisabled = errors.New("card payments not configured")
	ErrProofForbidden       = errors.New("proof belongs to another user")
)

// ValidationError carries a user-facing message for rejected input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// tooLong reports whether s exceeds a column of limit characters
func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// Publisher emits domain events
type Publisher interface {
	Publish(ctx context.Context, event *models.Event) error
}

// Cache is the Redis surface the services rely on
type Cache interface {
	AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, resource string) error
	SetActiveAnnouncements(ctx context.Context, list []*models.Announcement, ttl time.Duration) error
	GetActiveAnnouncements(ctx context.Context) ([]*models.Announcement, bool, error)
	InvalidateAnnouncements(ctx context.Context) error
}

// CardCheckout opens hosted card payment sessions
type CardCheckout interface {
	CreateSession(ctx context.Context, user *models.User, amount decimal.Decimal) (*billing.Session, error)
}

// Service implements the application's business operations
type Service struct {
	store     store.Store
	proofs    storage.ProofStore
	publisher Publisher
	cache     Cache
	checkout  CardCheckout
	cfg       config.AppConfig
	loc       *time.Location
	now       func() time.Time
	logger    *logging.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets the event publisher
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithProofStore sets the payment proof storage
func WithProofStore(p storage.ProofStore) Option {
	return func(s *Service) { s.proofs = p }
}

// WithCache enables Redis backed locking and caching
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithCheckout enables card top-ups
func WithCheckout(c CardCheckout) Option {
	return func(s *Service) { s.checkout = c }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a service over st
func New(st store.Store, cfg config.AppConfig, opts ...Option) *Service {
	s := &Service{
		store:  st,
		cfg:    cfg,
		loc:    cfg.Location(),
		now:    time.Now,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.AccessDuration <= 0 {
		s.cfg.AccessDuration = models.DefaultAccessDuration
	}
	return s
}

// Now returns the current instant in UTC
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// Location is the display timezone
func (s *Service) Location() *time.Location {
	return s.loc
}

// CardPaymentsEnabled reports whether a checkout provider is configured
func (s *Service) CardPaymentsEnabled() bool {
	return s.checkout != nil
}

// Ping checks the backing store
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) emit(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	event := &models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: s.Now(),
		Data:      data,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithField("event", eventType).WithError(err).Warn("Failed to publish event")
	}
}

func paymentEvent(p *models.Payment) models.PaymentEvent {
	return models.PaymentEvent{
		PaymentID: p.ID,
		UserID:    p.UserID,
		Amount:    p.Amount.String(),
		Method:    p.Method,
		Status:    p.Status,
	}
}
