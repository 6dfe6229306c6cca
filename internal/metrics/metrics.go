package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamflix_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Account Metrics
	RegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamflix_registrations_total",
			Help: "Total number of user registrations",
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// Payment Metrics
	TopupsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_topups_submitted_total",
			Help: "Total number of top-up requests",
		},
		[]string{"method"},
	)

	PaymentsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_payments_settled_total",
			Help: "Total number of payments moved out of pending",
		},
		[]string{"status"},
	)

	WalletCreditedRupiah = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamflix_wallet_credited_rupiah_total",
			Help: "Total rupiah credited to wallets",
		},
	)

	PendingPayments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamflix_pending_payments",
			Help: "Number of payments waiting for review",
		},
	)

	// Access Metrics
	AccessPurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_access_purchases_total",
			Help: "Total number of premium access purchase attempts",
		},
		[]string{"result"},
	)

	AccessSpentRupiah = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamflix_access_spent_rupiah_total",
			Help: "Total rupiah debited for premium access",
		},
	)

	AccessCodeRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_access_code_redemptions_total",
			Help: "Total number of access code redemption attempts",
		},
		[]string{"result"},
	)

	// Webhook Metrics
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_webhook_deliveries_total",
			Help: "Total number of webhook deliveries",
		},
		[]string{"endpoint", "status"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamflix_queue_depth",
			Help: "Number of events waiting in a queue",
		},
		[]string{"queue"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamflix_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request metric
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordRegistration counts a new account
func RecordRegistration() {
	RegistrationsTotal.Inc()
}

// RecordLogin counts a login attempt
func RecordLogin(success bool) {
	if success {
		LoginsTotal.WithLabelValues("success").Inc()
		return
	}
	LoginsTotal.WithLabelValues("failure").Inc()
}

// RecordTopupSubmitted counts a top-up request by method
func RecordTopupSubmitted(method string) {
	TopupsSubmittedTotal.WithLabelValues(method).Inc()
}

// RecordPaymentSettled counts a settlement and the credited amount
func RecordPaymentSettled(status string, credited float64) {
	PaymentsSettledTotal.WithLabelValues(status).Inc()
	if credited > 0 {
		WalletCreditedRupiah.Add(credited)
	}
}

// RecordWalletCredit counts a direct admin credit
func RecordWalletCredit(amount float64) {
	WalletCreditedRupiah.Add(amount)
}

// UpdatePendingPayments sets the review backlog gauge
func UpdatePendingPayments(n int) {
	PendingPayments.Set(float64(n))
}

// RecordAccessPurchase records a purchase attempt
func RecordAccessPurchase(result string, spent float64) {
	AccessPurchasesTotal.WithLabelValues(result).Inc()
	if spent > 0 {
		AccessSpentRupiah.Add(spent)
	}
}

// RecordAccessCodeRedemption records a redemption attempt
func RecordAccessCodeRedemption(result string) {
	AccessCodeRedemptionsTotal.WithLabelValues(result).Inc()
}

// RecordWebhookDelivery records a webhook delivery outcome
func RecordWebhookDelivery(endpoint, status string) {
	WebhookDeliveriesTotal.WithLabelValues(endpoint, status).Inc()
}

// UpdateQueueDepth sets the depth gauge of a queue
func UpdateQueueDepth(queue string, n int) {
	QueueDepth.WithLabelValues(queue).Set(float64(n))
}

// RecordCacheAccess records a cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordError records an error occurrence
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
