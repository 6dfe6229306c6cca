package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/video/:id", "200", 0.123)

	counter := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/video/:id", "200"))
	if counter != 1.0 {
		t.Errorf("Expected counter to be 1.0, got %f", counter)
	}
}

func TestRecordLogin(t *testing.T) {
	LoginsTotal.Reset()

	RecordLogin(true)
	RecordLogin(false)
	RecordLogin(false)

	success := testutil.ToFloat64(LoginsTotal.WithLabelValues("success"))
	if success != 1.0 {
		t.Errorf("Expected login successes to be 1.0, got %f", success)
	}

	failure := testutil.ToFloat64(LoginsTotal.WithLabelValues("failure"))
	if failure != 2.0 {
		t.Errorf("Expected login failures to be 2.0, got %f", failure)
	}
}

func TestRecordPaymentSettled(t *testing.T) {
	PaymentsSettledTotal.Reset()
	before := testutil.ToFloat64(WalletCreditedRupiah)

	RecordPaymentSettled("completed", 50000)
	RecordPaymentSettled("rejected", 0)

	completed := testutil.ToFloat64(PaymentsSettledTotal.WithLabelValues("completed"))
	if completed != 1.0 {
		t.Errorf("Expected completed counter to be 1.0, got %f", completed)
	}

	rejected := testutil.ToFloat64(PaymentsSettledTotal.WithLabelValues("rejected"))
	if rejected != 1.0 {
		t.Errorf("Expected rejected counter to be 1.0, got %f", rejected)
	}

	credited := testutil.ToFloat64(WalletCreditedRupiah) - before
	if credited != 50000.0 {
		t.Errorf("Expected 50000 credited, got %f", credited)
	}
}

func TestUpdatePendingPayments(t *testing.T) {
	UpdatePendingPayments(4)

	pending := testutil.ToFloat64(PendingPayments)
	if pending != 4.0 {
		t.Errorf("Expected pending payments to be 4.0, got %f", pending)
	}
}

func TestRecordAccessPurchase(t *testing.T) {
	AccessPurchasesTotal.Reset()
	before := testutil.ToFloat64(AccessSpentRupiah)

	RecordAccessPurchase("purchased", 5000)
	RecordAccessPurchase("insufficient_balance", 0)

	purchased := testutil.ToFloat64(AccessPurchasesTotal.WithLabelValues("purchased"))
	if purchased != 1.0 {
		t.Errorf("Expected purchased counter to be 1.0, got %f", purchased)
	}

	spent := testutil.ToFloat64(AccessSpentRupiah) - before
	if spent != 5000.0 {
		t.Errorf("Expected 5000 spent, got %f", spent)
	}
}

func TestRecordCacheAccess(t *testing.T) {
	CacheHitsTotal.Reset()
	CacheMissesTotal.Reset()

	RecordCacheAccess("announcements", true)
	RecordCacheAccess("announcements", true)
	RecordCacheAccess("announcements", false)

	hits := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("announcements"))
	if hits != 2.0 {
		t.Errorf("Expected cache hits to be 2.0, got %f", hits)
	}

	misses := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("announcements"))
	if misses != 1.0 {
		t.Errorf("Expected cache misses to be 1.0, got %f", misses)
	}
}

func TestRecordError(t *testing.T) {
	ErrorsTotal.Reset()

	RecordError("api", "validation")
	RecordError("worker", "webhook")
	RecordError("api", "validation")

	apiErrors := testutil.ToFloat64(ErrorsTotal.WithLabelValues("api", "validation"))
	if apiErrors != 2.0 {
		t.Errorf("Expected API validation errors to be 2.0, got %f", apiErrors)
	}

	workerErrors := testutil.ToFloat64(ErrorsTotal.WithLabelValues("worker", "webhook"))
	if workerErrors != 1.0 {
		t.Errorf("Expected worker webhook errors to be 1.0, got %f", workerErrors)
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordHTTPRequest("GET", "/video/:id", "200", 0.123)
	}
}
