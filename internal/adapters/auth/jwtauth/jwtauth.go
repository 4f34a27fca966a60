package jwtauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"vetclinic-api/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured = errors.New("jwtauth: secret not configured")
	ErrInvalidToken  = errors.New("jwtauth: invalid token")
)

// TokenTTL es la vigencia de los tokens emitidos (30 minutos por contrato).
const TokenTTL = 30 * time.Minute

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator emite y verifica tokens HS256 con secreto compartido.
// Implementa auth.TokenIssuer y auth.AuthVerifier.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) (*Authenticator, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrNotConfigured
	}
	return &Authenticator{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

func (a *Authenticator) Issue(c auth.Claims) (string, error) {
	if a == nil || len(a.secret) == 0 {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(c.UserID) == "" {
		return "", errors.New("jwtauth: user id required")
	}

	now := a.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	})
	return tok.SignedString(a.secret)
}

func (a *Authenticator) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if a == nil || len(a.secret) == 0 {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return a.now() }))
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	uid := strings.TrimSpace(c.Subject)
	if uid == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	return auth.Claims{
		UserID: uid,
		Role:   strings.TrimSpace(c.Role),
	}, nil
}
