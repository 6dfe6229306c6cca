package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	depth, dlq int
	err        error
}

func (q *fakeQueue) GetQueueDepth() (int, error) { return q.depth, q.err }
func (q *fakeQueue) GetDLQDepth() (int, error)   { return q.dlq, q.err }

type fakePayments struct {
	pending int
}

func (p *fakePayments) CountPayments(ctx context.Context) (*models.PaymentCounts, error) {
	return &models.PaymentCounts{Pending: p.pending, Total: p.pending}, nil
}

func deliveries(statuses ...string) []*models.WebhookDelivery {
	out := make([]*models.WebhookDelivery, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, &models.WebhookDelivery{Endpoint: "crm", Status: s})
	}
	return out
}

func TestCollect(t *testing.T) {
	m := NewMonitor(&fakeQueue{depth: 3, dlq: 1}, &fakePayments{pending: 7}, 0, nil)
	require.NoError(t, m.Collect(context.Background()))

	s := m.Snapshot()
	assert.Equal(t, 3, s.QueueDepth)
	assert.Equal(t, 1, s.DLQDepth)
	assert.Equal(t, 7, s.PendingPayments)
	assert.Equal(t, HealthHealthy, m.Health())
	assert.Empty(t, m.Alerts())
}

func TestCollect_WithoutPayments(t *testing.T) {
	m := NewMonitor(&fakeQueue{depth: 2}, nil, 0, nil)
	require.NoError(t, m.Collect(context.Background()))
	assert.Equal(t, 0, m.Snapshot().PendingPayments)
}

func TestCollect_QueueError(t *testing.T) {
	m := NewMonitor(&fakeQueue{err: errors.New("channel closed")}, nil, 0, nil)
	assert.Error(t, m.Collect(context.Background()))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		queue   *fakeQueue
		pending int
		want    string
		alerts  int
	}{
		{"idle", &fakeQueue{}, 0, HealthHealthy, 0},
		{"dead letters", &fakeQueue{dlq: 101}, 0, HealthCritical, 1},
		{"backed up", &fakeQueue{depth: 1001}, 0, HealthWarning, 1},
		{"review backlog", &fakeQueue{}, 51, HealthWarning, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(tt.queue, &fakePayments{pending: tt.pending}, 0, nil)
			require.NoError(t, m.Collect(context.Background()))
			assert.Equal(t, tt.want, m.Health())
			assert.Len(t, m.Alerts(), tt.alerts)
		})
	}
}

func TestRecordDeliveries(t *testing.T) {
	m := NewMonitor(&fakeQueue{}, nil, 0, nil)

	m.RecordDeliveries(deliveries(models.WebhookDeliveryStatusDelivered, models.WebhookDeliveryStatusDelivered))
	m.RecordDeliveries(nil)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.ProcessedEvents)
	assert.Equal(t, int64(2), s.DeliveredWebhooks)
	assert.Equal(t, HealthHealthy, m.Health())

	m.RecordDeliveries(deliveries(models.WebhookDeliveryStatusFailed))
	assert.Equal(t, HealthWarning, m.Health())
	assert.Contains(t, m.Alerts()[0], "webhook failure rate")
}
