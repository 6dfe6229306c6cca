package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/logging"
	"github.com/RMBLOGG/StreamFliix/internal/metrics"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
)

// Health levels reported by Monitor.Health
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)

// Alert thresholds
const (
	maxQueueDepth     = 1000
	maxDLQDepth       = 100
	maxPendingReviews = 50
	maxFailureRate    = 0.1
)

// Snapshot holds the latest view of the event pipeline
type Snapshot struct {
	QueueDepth        int       `json:"queue_depth"`
	DLQDepth          int       `json:"dlq_depth"`
	PendingPayments   int       `json:"pending_payments"`
	DeliveredWebhooks int64     `json:"delivered_webhooks"`
	FailedWebhooks    int64     `json:"failed_webhooks"`
	ProcessedEvents   int64     `json:"processed_events"`
	LastEventAt       time.Time `json:"last_event_at,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
}

// QueueProvider reports queue depths
type QueueProvider interface {
	GetQueueDepth() (int, error)
	GetDLQDepth() (int, error)
}

// PaymentCounter reports the payment review backlog
type PaymentCounter interface {
	CountPayments(ctx context.Context) (*models.PaymentCounts, error)
}

// Monitor samples the worker's queues and review backlog and keeps delivery
// totals for health reporting
type Monitor struct {
	mu       sync.RWMutex
	snapshot Snapshot
	queue    QueueProvider
	payments PaymentCounter
	interval time.Duration
	logger   *logging.Logger
}

// NewMonitor creates a monitor. payments may be nil when the worker runs
// without a database.
func NewMonitor(queue QueueProvider, payments PaymentCounter, interval time.Duration, logger *logging.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Monitor{
		queue:    queue,
		payments: payments,
		interval: interval,
		logger:   logger,
		snapshot: Snapshot{LastUpdated: time.Now()},
	}
}

// Start collects on every tick until ctx is done
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Collect(ctx); err != nil {
					m.logger.WithError(err).Warn("Failed to collect pipeline metrics")
				}
				for _, alert := range m.Alerts() {
					m.logger.WithField("health", m.Health()).Warn(alert)
				}
			}
		}
	}()
}

// Collect refreshes queue depths and the review backlog and publishes them
// as gauges
func (m *Monitor) Collect(ctx context.Context) error {
	queueDepth, err := m.queue.GetQueueDepth()
	if err != nil {
		return fmt.Errorf("failed to get queue depth: %w", err)
	}
	dlqDepth, err := m.queue.GetDLQDepth()
	if err != nil {
		return fmt.Errorf("failed to get DLQ depth: %w", err)
	}

	pending := -1
	if m.payments != nil {
		counts, err := m.payments.CountPayments(ctx)
		if err != nil {
			return fmt.Errorf("failed to count payments: %w", err)
		}
		pending = counts.Pending
	}

	metrics.UpdateQueueDepth("events", queueDepth)
	metrics.UpdateQueueDepth("dlq", dlqDepth)
	if pending >= 0 {
		metrics.UpdatePendingPayments(pending)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot.QueueDepth = queueDepth
	m.snapshot.DLQDepth = dlqDepth
	if pending >= 0 {
		m.snapshot.PendingPayments = pending
	}
	m.snapshot.LastUpdated = time.Now()
	return nil
}

// RecordDeliveries counts the outcome of one processed event
func (m *Monitor) RecordDeliveries(deliveries []*models.WebhookDelivery) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot.ProcessedEvents++
	m.snapshot.LastEventAt = time.Now()
	for _, d := range deliveries {
		metrics.RecordWebhookDelivery(d.Endpoint, d.Status)
		if d.Status == models.WebhookDeliveryStatusDelivered {
			m.snapshot.DeliveredWebhooks++
		} else {
			m.snapshot.FailedWebhooks++
		}
	}
}

// Snapshot returns a copy of the current view
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (s *Snapshot) failureRate() float64 {
	total := s.DeliveredWebhooks + s.FailedWebhooks
	if total == 0 {
		return 0
	}
	return float64(s.FailedWebhooks) / float64(total)
}

// Health summarizes the snapshot as healthy, warning or critical
func (m *Monitor) Health() string {
	s := m.Snapshot()

	if s.DLQDepth > maxDLQDepth {
		return HealthCritical
	}
	if s.QueueDepth > maxQueueDepth || s.failureRate() > maxFailureRate || s.PendingPayments > maxPendingReviews {
		return HealthWarning
	}
	return HealthHealthy
}

// Alerts lists the thresholds currently exceeded
func (m *Monitor) Alerts() []string {
	s := m.Snapshot()

	var alerts []string
	if s.DLQDepth > maxDLQDepth {
		alerts = append(alerts, fmt.Sprintf("High DLQ depth: %d events", s.DLQDepth))
	}
	if s.QueueDepth > maxQueueDepth {
		alerts = append(alerts, fmt.Sprintf("High queue depth: %d events pending", s.QueueDepth))
	}
	if s.PendingPayments > maxPendingReviews {
		alerts = append(alerts, fmt.Sprintf("Payment review backlog: %d pending", s.PendingPayments))
	}
	if rate := s.failureRate(); rate > maxFailureRate {
		alerts = append(alerts, fmt.Sprintf("High webhook failure rate: %.1f%%", rate*100))
	}
	return alerts
}
