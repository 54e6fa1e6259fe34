package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spendlog/spendlog/internal/auth"
	"github.com/spendlog/spendlog/internal/cache"
	"github.com/spendlog/spendlog/internal/metrics"
	"github.com/spendlog/spendlog/internal/model"
)

// countingLimiter allows the first burst calls per key and rejects the rest.
type countingLimiter struct {
	burst int
	calls map[string]int
	err   error
}

func newCountingLimiter(burst int) *countingLimiter {
	return &countingLimiter{burst: burst, calls: make(map[string]int)}
}

func (l *countingLimiter) check(key string) (*cache.RateLimitResult, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.calls[key]++
	n := l.calls[key]
	if n > l.burst {
		return &cache.RateLimitResult{Allowed: false, ResetAt: time.Unix(1700000060, 0), RetryAfter: 1500 * time.Millisecond}, nil
	}
	return &cache.RateLimitResult{Allowed: true, Remaining: int64(l.burst - n), ResetAt: time.Unix(1700000060, 0)}, nil
}

func (l *countingLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	return l.check("ip:" + ip)
}

func (l *countingLimiter) CheckUserRateLimit(_ context.Context, userID string, _, _ int) (*cache.RateLimitResult, error) {
	return l.check("user:" + userID)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAuth_BlocksAfterBurst(t *testing.T) {
	limiter := newCountingLimiter(2)
	recorder := metrics.NewInMemory()
	handler := RateLimitAuth(RateLimitConfig{
		Limiter:       limiter,
		Metrics:       recorder,
		AuthPerMinute: 10,
		AuthBurst:     2,
	})(okHandler())

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if i == 2 {
			if got := rec.Header().Get("Retry-After"); got != "1" {
				t.Errorf("Retry-After = %q, want 1", got)
			}
			if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
				t.Errorf("X-RateLimit-Limit = %q, want 10", got)
			}
			if got := rec.Header().Get("X-RateLimit-Reset"); got != "1700000060" {
				t.Errorf("X-RateLimit-Reset = %q", got)
			}
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i, codes[i], want[i])
		}
	}
	if got := recorder.Snapshot().RateLimitedAuth; got != 1 {
		t.Errorf("rate limited auth = %d, want 1", got)
	}

	// A different client IP has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "192.0.2.11:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", rec.Code)
	}
}

func TestRateLimitAPI_PerUser(t *testing.T) {
	limiter := newCountingLimiter(1)
	handler := RateLimitAPI(RateLimitConfig{
		Limiter:      limiter,
		APIPerMinute: 60,
		APIBurst:     1,
	})(okHandler())

	request := func(userID string) int {
		ctx := auth.ContextWithAuth(context.Background(), &model.AuthContext{UserID: userID})
		req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := request("alice"); got != http.StatusOK {
		t.Errorf("alice first = %d, want 200", got)
	}
	if got := request("alice"); got != http.StatusTooManyRequests {
		t.Errorf("alice second = %d, want 429", got)
	}
	if got := request("bob"); got != http.StatusOK {
		t.Errorf("bob first = %d, want 200", got)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := newCountingLimiter(0)
	limiter.err = errors.New("redis down")

	handler := RateLimitAuth(RateLimitConfig{Limiter: limiter, AuthPerMinute: 10, AuthBurst: 1})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when limiter errors", rec.Code)
	}
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	tests := []struct {
		name string
		cfg  RateLimitConfig
	}{
		{"nil limiter", RateLimitConfig{AuthPerMinute: 10, APIPerMinute: 10}},
		{"zero rate", RateLimitConfig{Limiter: newCountingLimiter(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RateLimitAuth(tt.cfg)(RateLimitAPI(tt.cfg)(okHandler()))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}
