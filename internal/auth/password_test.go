package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error creating hasher: %v", err)
	}
	return h
}

func TestPasswordHashingLifecycle(t *testing.T) {
	h := newTestHasher(t)
	password := "secure_password"

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("unexpected error hashing password: %v", err)
	}
	if !strings.HasPrefix(hash, HashPrefix) {
		t.Fatalf("expected hash to start with %s, got %q", HashPrefix, hash)
	}

	ok, err := h.Verify(password, hash)
	if err != nil {
		t.Fatalf("unexpected error verifying password: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, err = h.Verify("incorrect_password", hash)
	if err != nil {
		t.Fatalf("unexpected error verifying wrong password: %v", err)
	}
	if ok {
		t.Fatal("expected verification to fail for wrong password")
	}
}

func TestHashWithDifferentCosts(t *testing.T) {
	h := newTestHasher(t)
	password := "secure_password"

	hash10, err := h.HashWithCost(password, 10)
	if err != nil {
		t.Fatalf("unexpected error hashing with cost 10: %v", err)
	}
	hash12, err := h.HashWithCost(password, 12)
	if err != nil {
		t.Fatalf("unexpected error hashing with cost 12: %v", err)
	}
	if hash10 == hash12 {
		t.Fatal("hashes should differ with different cost factors")
	}

	for hash, want := range map[string]int{hash10: 10, hash12: 12} {
		cost, err := bcrypt.Cost([]byte(hash))
		if err != nil {
			t.Fatalf("unexpected error reading cost: %v", err)
		}
		if cost != want {
			t.Fatalf("expected cost %d, got %d", want, cost)
		}
	}
}

func TestHashEdgeCases(t *testing.T) {
	h := newTestHasher(t)

	tests := []struct {
		name     string
		password string
	}{
		{name: "empty", password: ""},
		{name: "single space", password: " "},
		{name: "long", password: strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			if err != nil {
				t.Fatalf("unexpected error hashing %q: %v", tt.password, err)
			}
			if !strings.HasPrefix(hash, HashPrefix) {
				t.Fatalf("expected %s prefix, got %q", HashPrefix, hash)
			}
			ok, err := h.Verify(tt.password, hash)
			if err != nil || !ok {
				t.Fatalf("expected round trip to verify, ok=%v err=%v", ok, err)
			}
			ok, err = h.Verify("not empty", hash)
			if err != nil || ok {
				t.Fatalf("expected other password to fail, ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestVerifyInvalidHash(t *testing.T) {
	h := newTestHasher(t)

	ok, err := h.Verify("secure_password", "invalid_hash_format")
	if !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
	if ok {
		t.Fatal("expected invalid hash to never verify")
	}
}

func TestVerifyAcceptsLegacyPrefix(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := newTestHasher(t).Verify("secret", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected $2a$ hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestHashInternalError(t *testing.T) {
	original := generateFromPassword
	t.Cleanup(func() { generateFromPassword = original })
	generateFromPassword = func([]byte, int) ([]byte, error) {
		return nil, errors.New("simulated internal error")
	}

	_, err := newTestHasher(t).Hash("test")
	if !errors.Is(err, ErrHashFailed) {
		t.Fatalf("expected ErrHashFailed, got %v", err)
	}
	if strings.Contains(err.Error(), "simulated") {
		t.Fatalf("primitive error leaked: %v", err)
	}
}

func TestNewHasherCost(t *testing.T) {
	h, err := NewHasher(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Cost() != DefaultCost {
		t.Fatalf("expected default cost %d, got %d", DefaultCost, h.Cost())
	}
	if _, err := NewHasher(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected error for cost above maximum")
	}
	if _, err := NewHasher(2); err == nil {
		t.Fatal("expected error for cost below minimum")
	}
}
