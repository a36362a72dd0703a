package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/mmcdole/lunastream/internal/domain"
)

// Claims is the payload of an admin token
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Issuer signs and verifies HS256 admin tokens with a shared secret
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates a token issuer. ttl <= 0 issues tokens without expiry.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for username
func (i *Issuer) Issue(username string) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		Username: username,
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the claims
func (i *Issuer) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Username == "" {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	return claims, nil
}
