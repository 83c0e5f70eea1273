// Package session issues the signed token that ties a browser checkout to
// its payment intent across requests.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

const DefaultTTL = 24 * time.Hour

type Claims struct {
	OrderNumber string `json:"ord"`
	jwt.RegisteredClaims
}

// SessionID is the checkout session the token was issued for.
func (c *Claims) SessionID() string { return c.Subject }

type Manager struct {
	secret []byte
	iss    string
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret, iss string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), iss: iss, ttl: ttl, now: time.Now}
}

// WithTimeFunc replaces the clock, for tests.
func (m *Manager) WithTimeFunc(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func NewSessionID() string {
	return uuid.NewString()
}

func (m *Manager) Issue(sessionID, orderNumber string) (string, error) {
	now := m.now()
	claims := Claims{
		OrderNumber: orderNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    m.iss,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return token, nil
}

func (m *Manager) Parse(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.iss),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
