package auth

import (
	"accounts/internal/apperror"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DetailTokenExpired    = "Token has expired"
	DetailTokenInvalid    = "Invalid token"
	DetailTokenMissingExp = "Token missing required claim: exp"
)

// Claims is the decoded payload of an access token.
type Claims map[string]any

// Subject returns the "sub" claim, or "" when absent.
func (c Claims) Subject() string {
	sub, _ := c["sub"].(string)
	return sub
}

// Role returns the "role" claim, or "" when absent.
func (c Claims) Role() string {
	role, _ := c["role"].(string)
	return role
}

// Manager encapsulates JWT generation and validation.
type Manager struct {
	secret []byte
	method jwt.SigningMethod
	expiry time.Duration
	now    func() time.Time
}

// NewManager creates a new JWT manager. Only HMAC algorithms are accepted.
func NewManager(secret, algorithm string, expiry time.Duration) (*Manager, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	alg := strings.ToUpper(strings.TrimSpace(algorithm))
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	return &Manager{
		secret: []byte(trimmed),
		method: method,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// DefaultExpiry returns the lifetime used when CreateAccessToken gets none.
func (m *Manager) DefaultExpiry() time.Duration {
	return m.expiry
}

// CreateAccessToken signs claims plus an "exp" of now+expiresDelta. A zero
// expiresDelta falls back to the manager's default expiry; a negative one
// yields a token that is already expired.
func (m *Manager) CreateAccessToken(claims Claims, expiresDelta time.Duration) (string, error) {
	if m == nil {
		return "", errors.New("jwt manager is nil")
	}
	if expiresDelta == 0 {
		expiresDelta = m.expiry
	}
	now := m.now()

	payload := make(jwt.MapClaims, len(claims)+2)
	for key, value := range claims {
		payload[key] = value
	}
	payload["iat"] = jwt.NewNumericDate(now)
	payload["exp"] = jwt.NewNumericDate(now.Add(expiresDelta))

	token := jwt.NewWithClaims(m.method, payload)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken validates signature and expiry and returns the claims.
// Every failure is an *apperror.HTTPError with status 401.
func (m *Manager) VerifyAccessToken(tokenString string) (Claims, error) {
	if m == nil {
		return nil, errors.New("jwt manager is nil")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, translateTokenError(err)
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized(DetailTokenInvalid)
	}

	claims := make(Claims, len(mapClaims))
	for key, value := range mapClaims {
		claims[key] = value
	}
	return claims, nil
}

func translateTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperror.Unauthorized(DetailTokenExpired)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return apperror.Unauthorized(DetailTokenMissingExp)
	default:
		return apperror.Unauthorized(DetailTokenInvalid)
	}
}
