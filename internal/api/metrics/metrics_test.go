package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, s *Store) string {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	return rr.Body.String()
}

func TestU_Store_RenewalCount(t *testing.T) {
	s := New()
	s.RenewalCount.Inc()
	s.RenewalCount.Inc()

	want := `# HELP qcert_cert_renewal_count represents the number of certificate renewals
# TYPE qcert_cert_renewal_count counter
qcert_cert_renewal_count 2
`
	if body := scrape(t, s); !strings.Contains(body, want) {
		t.Errorf("metrics output missing renewal count:\n%s", body)
	}
}

func TestU_Store_OperationErrorCount(t *testing.T) {
	s := New()
	s.OperationErrorCount.WithLabelValues("renew").Inc()

	if body := scrape(t, s); !strings.Contains(body, `qcert_cert_operation_error_count{operation="renew"} 1`) {
		t.Errorf("metrics output missing error count:\n%s", body)
	}
}

func TestU_Store_ObserveCertificate(t *testing.T) {
	s := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.ObserveCertificate(1001, now.Add(time.Hour), now)

	body := scrape(t, s)
	if !strings.Contains(body, "qcert_cert_serial 1001") {
		t.Errorf("metrics output missing serial:\n%s", body)
	}
	if !strings.Contains(body, "qcert_cert_expiry_seconds 3600") {
		t.Errorf("metrics output missing expiry:\n%s", body)
	}
}

func TestU_Store_Independent(t *testing.T) {
	a, b := New(), New()
	a.RenewalCount.Inc()
	if strings.Contains(scrape(t, b), "qcert_cert_renewal_count 1") {
		t.Error("stores should not share registries")
	}
}
