package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token has been revoked")
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = time.Hour

const maxRevoked = 10000

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 tokens and keeps the revocation list.
// A revoked entry is evicted one token lifetime after revocation, by which
// point the token itself has expired.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked *expirable.LRU[string, struct{}]
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: expirable.NewLRU[string, struct{}](maxRevoked, nil, ttl),
	}
}

func (m *Manager) Issue(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenStr and returns its claims.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims, err := m.verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if m.revoked.Contains(claims.ID) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke invalidates tokenStr until it expires.
func (m *Manager) Revoke(tokenStr string) error {
	claims, err := m.verify(tokenStr)
	if err != nil {
		return err
	}
	m.revoked.Add(claims.ID, struct{}{})
	return nil
}

// RevokedCount returns the number of revocations still tracked.
func (m *Manager) RevokedCount() int {
	return m.revoked.Len()
}

func (m *Manager) verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
