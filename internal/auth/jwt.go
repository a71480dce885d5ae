package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"timetrack/internal/domain"
)

// Identity is the verified (callerId, callerRole) pair handed to the core.
type Identity struct {
	UserID string
	Role   domain.Role
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager mints and verifies the HS256 bearer tokens the HTTP layer
// authenticates with.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Mint issues a token carrying the user's id and role.
func (m *TokenManager) Mint(u *domain.User) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return t.SignedString(m.secret)
}

// Verify parses and validates a token and returns the caller identity.
func (m *TokenManager) Verify(token string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !parsed.Valid {
		return Identity{}, errors.New("invalid token")
	}
	role := domain.Role(c.Role)
	if c.Subject == "" || !role.Valid() {
		return Identity{}, errors.New("token missing subject or role")
	}
	return Identity{UserID: c.Subject, Role: role}, nil
}
