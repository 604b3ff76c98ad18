package auth

import (
	"accounts/internal/apperror"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "your_secret_key"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(testSecret, "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}
	return mgr
}

func assertUnauthorized(t *testing.T, err error, detail string) {
	t.Helper()
	var httpErr *apperror.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *apperror.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", httpErr.StatusCode)
	}
	if httpErr.Detail != detail {
		t.Fatalf("expected detail %q, got %q", detail, httpErr.Detail)
	}
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatal("expected error to match apperror.ErrUnauthorized")
	}
}

func TestCreateAccessToken(t *testing.T) {
	mgr := newTestManager(t)

	token, err := mgr.CreateAccessToken(Claims{"sub": "testuser"}, 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact JWT, got %q", token)
	}

	decoded, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("unexpected error decoding token: %v", err)
	}
	claims := decoded.Claims.(jwt.MapClaims)
	if claims["sub"] != "testuser" {
		t.Fatalf("expected sub testuser, got %v", claims["sub"])
	}
	if _, ok := claims["exp"]; !ok {
		t.Fatal("expected exp claim")
	}
}

func TestVerifyValidToken(t *testing.T) {
	mgr := newTestManager(t)

	token, err := mgr.CreateAccessToken(Claims{"sub": "testuser", "role": "ADMIN"}, 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}
	claims, err := mgr.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if claims.Subject() != "testuser" {
		t.Fatalf("expected sub testuser, got %q", claims.Subject())
	}
	if claims.Role() != "ADMIN" {
		t.Fatalf("expected role ADMIN, got %q", claims.Role())
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	mgr := newTestManager(t)

	token, err := mgr.CreateAccessToken(Claims{"sub": "testuser"}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}

	mgr.now = func() time.Time { return time.Now().Add(2 * time.Second) }
	_, err = mgr.VerifyAccessToken(token)
	assertUnauthorized(t, err, DetailTokenExpired)
}

func TestVerifyInvalidToken(t *testing.T) {
	mgr := newTestManager(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage segments", token: "invalid.token.value"},
		{name: "empty", token: ""},
		{name: "not a jwt", token: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.VerifyAccessToken(tt.token)
			assertUnauthorized(t, err, DetailTokenInvalid)
		})
	}
}

func TestVerifyTokenMissingExp(t *testing.T) {
	mgr := newTestManager(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "testuser"}).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("unexpected error signing token: %v", err)
	}

	_, err = mgr.VerifyAccessToken(token)
	assertUnauthorized(t, err, DetailTokenMissingExp)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	other, err := NewManager("a-different-secret", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := other.CreateAccessToken(Claims{"sub": "testuser"}, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = newTestManager(t).VerifyAccessToken(token)
	assertUnauthorized(t, err, DetailTokenInvalid)
}

func TestVerifyTokenWrongAlgorithm(t *testing.T) {
	hs512, err := NewManager(testSecret, "HS512", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := hs512.CreateAccessToken(Claims{"sub": "testuser"}, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = newTestManager(t).VerifyAccessToken(token)
	assertUnauthorized(t, err, DetailTokenInvalid)
}

func TestCreateAccessTokenDefaultExpiry(t *testing.T) {
	mgr := newTestManager(t)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return fixed }

	token, err := mgr.CreateAccessToken(Claims{"sub": "testuser"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := mgr.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("unexpected error verifying: %v", err)
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatalf("expected numeric exp, got %T", claims["exp"])
	}
	if want := fixed.Add(30 * time.Minute).Unix(); int64(exp) != want {
		t.Fatalf("expected exp %d, got %d", want, int64(exp))
	}
}

func TestCreateAccessTokenNegativeDeltaIsExpired(t *testing.T) {
	mgr := newTestManager(t)

	token, err := mgr.CreateAccessToken(Claims{"sub": "testuser"}, -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}
	_, err = mgr.VerifyAccessToken(token)
	assertUnauthorized(t, err, DetailTokenExpired)
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager("   ", "HS256", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewManager("secret", "RS256", time.Hour); err == nil {
		t.Fatal("expected error for non-HMAC algorithm")
	}
	mgr, err := NewManager("secret", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mgr.DefaultExpiry() != 30*time.Minute {
		t.Fatalf("expected 30m default expiry, got %s", mgr.DefaultExpiry())
	}
}
