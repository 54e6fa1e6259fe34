package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spendlog/spendlog/internal/metrics"
)

func TestMetricsHandler(t *testing.T) {
	recorder := metrics.NewInMemory()
	recorder.IncUserRegistered()
	recorder.IncLogin(metrics.LoginSuccess)
	recorder.IncLogin(metrics.LoginFailure)
	recorder.IncLogin(metrics.LoginFailure)
	recorder.IncExpenseCreated()
	recorder.ObserveSummaryDuration(1500 * time.Millisecond)
	recorder.IncRateLimited(metrics.ScopeAuth)

	rec := httptest.NewRecorder()
	NewMetricsHandler(recorder).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, line := range []string{
		"spendlog_users_registered_total 1",
		`spendlog_logins_total{status="success"} 1`,
		`spendlog_logins_total{status="failure"} 2`,
		"spendlog_expenses_created_total 1",
		"spendlog_summary_duration_seconds_count 1",
		"spendlog_summary_duration_seconds_sum 1.500000",
		`spendlog_rate_limited_total{scope="auth"} 1`,
		`spendlog_rate_limited_total{scope="api"} 0`,
	} {
		if !strings.Contains(body, line+"\n") {
			t.Errorf("missing metric line %q in:\n%s", line, body)
		}
	}
}

func TestMetricsHandler_NoSnapshotter(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMetricsHandler(nil).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}
