package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only error Verify returns to callers.
var ErrInvalidToken = errors.New("invalid token")

// TokenType is reported to clients alongside an access token.
const TokenType = "bearer"

// TokenService issues and verifies HS256 access tokens whose subject is
// the user's email.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret is copied and never
// changes afterwards.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a token for subject that expires at now + TTL. Claims carry
// whole seconds, so now is truncated first and the returned expiry matches
// the signed exp claim.
func (s *TokenService) Issue(subject string, now time.Time) (string, time.Time, error) {
	now = now.Truncate(time.Second)
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Verify checks the signature and expiry of tokenString at instant now and
// returns its subject. Every failure is reported as ErrInvalidToken.
func (s *TokenService) Verify(tokenString string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		slog.Debug("token rejected", "reason", rejectionReason(err))
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		slog.Debug("token rejected", "reason", "missing subject")
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unverifiable"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "missing claim"
	default:
		return "invalid"
	}
}
