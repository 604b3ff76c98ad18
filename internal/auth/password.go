package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used when none is configured.
	DefaultCost = 12
	// HashPrefix tags every hash produced by Hasher.
	HashPrefix = "$2b$"

	// bcrypt only reads the first 72 bytes of its input.
	maxPasswordBytes = 72
)

var (
	// ErrHashFailed is returned when the hashing primitive fails. The
	// primitive's own error is not exposed.
	ErrHashFailed = errors.New("auth: failed to hash password")
	// ErrInvalidHash is returned by Verify when the stored hash is not a
	// bcrypt hash. A wrong password is reported as (false, nil) instead.
	ErrInvalidHash = errors.New("auth: invalid password hash format")
)

// replaced in tests to simulate a failing primitive
var generateFromPassword = bcrypt.GenerateFromPassword

// Hasher hashes and verifies passwords with bcrypt. It is safe for
// concurrent use.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given cost. Zero selects DefaultCost.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if err := validateCost(cost); err != nil {
		return nil, err
	}
	return &Hasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash 对明文密码进行哈希处理
func (h *Hasher) Hash(password string) (string, error) {
	return h.HashWithCost(password, h.cost)
}

// HashWithCost hashes password with an explicit work factor.
func (h *Hasher) HashWithCost(password string, cost int) (string, error) {
	if err := validateCost(cost); err != nil {
		return "", err
	}
	hashed, err := generateFromPassword(truncatePassword(password), cost)
	if err != nil {
		return "", ErrHashFailed
	}
	return withHashPrefix(string(hashed)), nil
}

// Verify 验证密码是否与存储的哈希值匹配
func (h *Hasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}

func validateCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("%w: cost %d outside [%d, %d]", ErrHashFailed, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func truncatePassword(password string) []byte {
	raw := []byte(password)
	if len(raw) > maxPasswordBytes {
		raw = raw[:maxPasswordBytes]
	}
	return raw
}

// withHashPrefix rewrites the $2a$ tag emitted by x/crypto to $2b$. Both
// tags describe the same algorithm for inputs of at most 72 bytes.
func withHashPrefix(hash string) string {
	if strings.HasPrefix(hash, "$2a$") {
		return HashPrefix + hash[len(HashPrefix):]
	}
	return hash
}
