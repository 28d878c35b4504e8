package gateway

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by every gateway bearer token. Field
// order fixes the serialized claim order: sub, role, iat, exp.
type TokenClaims struct {
	Subject   string `json:"sub"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

var _ jwt.Claims = TokenClaims{}

// NewTokenClaims returns claims issued at now and expiring after ttl.
func NewTokenClaims(subject, role string, now time.Time, ttl time.Duration) TokenClaims {
	return TokenClaims{
		Subject:   subject,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

func (c TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c TokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c TokenClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c TokenClaims) GetIssuer() (string, error)              { return "", nil }
func (c TokenClaims) GetSubject() (string, error)             { return c.Subject, nil }
func (c TokenClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// CreateToken signs claims with HS256. The output is deterministic for a
// given claims value and secret.
func CreateToken(claims TokenClaims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("sign token: empty secret")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
