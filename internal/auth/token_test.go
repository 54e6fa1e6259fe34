package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-thirty-two-bytes!"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(t *testing.T, clock *fakeClock) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return m
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenManager(""); err == nil {
		t.Error("empty secret should be rejected")
	}
}

func TestTokenManager_IssueVerify(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	token, expiresAt, err := m.Issue("01HUSER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}
	if want := clock.t.Add(time.Hour); !expiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, want)
	}

	ac, err := m.Verify("Bearer " + token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ac.UserID != "01HUSER" {
		t.Errorf("UserID = %q, want %q", ac.UserID, "01HUSER")
	}
	if !ac.ExpiresAt.Equal(expiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", ac.ExpiresAt, expiresAt)
	}
}

func TestTokenManager_Expiry(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	m := newTestManager(t, clock)

	token, _, err := m.Issue("01HUSER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	clock.t = issued.Add(59 * time.Minute)
	if _, err := m.Verify("Bearer " + token); err != nil {
		t.Errorf("token should be valid at T+59m, got %v", err)
	}

	clock.t = issued.Add(61 * time.Minute)
	if _, err := m.Verify("Bearer " + token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("token at T+61m error = %v, want ErrExpiredToken", err)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	good, _, err := m.Issue("01HUSER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other, err := NewTokenManager("another-secret-also-thirty-two-bytes", WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	foreign, _, _ := other.Issue("01HUSER")

	claims := Claims{
		UserID: "01HUSER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "01HUSER"}).SignedString([]byte(testSecret))
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))},
	}).SignedString([]byte(testSecret))

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing header", "", ErrMissingToken},
		{"blank header", "   ", ErrMissingToken},
		{"token only", good, ErrMalformedHeader},
		{"wrong scheme", "Basic " + good, ErrMalformedHeader},
		{"three parts", "Bearer " + good + " extra", ErrMalformedHeader},
		{"garbage", "Bearer not.a.jwt", ErrInvalidToken},
		{"tampered payload", "Bearer " + tampered, ErrInvalidToken},
		{"foreign secret", "Bearer " + foreign, ErrInvalidToken},
		{"hs512", "Bearer " + hs512, ErrInvalidToken},
		{"alg none", "Bearer " + none, ErrInvalidToken},
		{"no expiry", "Bearer " + noExp, ErrInvalidToken},
		{"no user id", "Bearer " + noUser, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := m.Verify(tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{"BEARER  abc", "abc", nil},
		{"", "", ErrMissingToken},
		{"Bearer", "", ErrMalformedHeader},
		{"Token abc", "", ErrMalformedHeader},
	}

	for _, tt := range tests {
		got, err := ExtractBearer(tt.header)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ExtractBearer(%q) error = %v, want %v", tt.header, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestContext_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	if UserIDFromContext(ctx) != "" {
		t.Error("empty context should have no user")
	}

	m := newTestManager(t, &fakeClock{t: time.Now()})
	token, _, _ := m.Issue("01HUSER")
	ac, err := m.Verify("Bearer " + token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	ctx = ContextWithAuth(ctx, ac)
	if got := UserIDFromContext(ctx); got != "01HUSER" {
		t.Errorf("UserIDFromContext = %q, want 01HUSER", got)
	}
	if MustAuthFromContext(ctx) != ac {
		t.Error("MustAuthFromContext should return the stored context")
	}
}
