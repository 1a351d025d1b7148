package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token TTL defaults.
const (
	// defaultAccessTTLMinutes is the default access token lifetime (24 hours).
	defaultAccessTTLMinutes = 24 * 60

	// defaultRefreshTTLMinutes is the default refresh token lifetime (7 days).
	defaultRefreshTTLMinutes = 7 * 24 * 60
)

// Token kinds. Every token carries its kind as a claim so an access token
// can never be accepted where a refresh token is expected, and vice versa.
const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

// AccessClaims is the payload of an access token. The verified token is the
// sole source of truth for authorisation during its lifetime — role changes
// take effect at the next issuance or refresh, never mid-lifetime.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	Role        Role   `json:"role"`
	Kind        string `json:"kind"`
}

// RefreshClaims is the payload of a refresh token. Single-purpose: it only
// identifies the user and carries no role or identity details.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

// GenerateAccessToken creates a signed HS256 JWT access token for a user.
// Access tokens are validated by signature only (no database hit).
func GenerateAccessToken(user *User, secret string, ttlMinutes int) (string, error) {
	if ttlMinutes <= 0 {
		ttlMinutes = defaultAccessTTLMinutes
	}

	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
			ID:        uuid.NewString(),
		},
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Kind:        tokenKindAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken creates a signed HS256 JWT refresh token for a user.
// The returned JTI is recorded (hashed) by the token repository so refresh
// tokens can be rotated single-use and revoked.
func GenerateRefreshToken(userID, secret string, ttlMinutes int) (signed, jti string, err error) {
	if ttlMinutes <= 0 {
		ttlMinutes = defaultRefreshTTLMinutes
	}

	now := time.Now()
	jti = uuid.NewString()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
			ID:        jti,
		},
		Kind: tokenKindRefresh,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err = token.SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("signing refresh token: %w", err)
	}
	return signed, jti, nil
}

// ParseAccessToken validates and parses a JWT access token. It checks the
// signature, expiry, kind, and required identity fields. Every failure —
// bad signature, expired, malformed, wrong kind — wraps ErrTokenInvalid so
// callers surface nothing beyond "unauthenticated".
func ParseAccessToken(tokenString, secret string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Kind != tokenKindAccess {
		return nil, fmt.Errorf("%w: wrong token kind", ErrTokenInvalid)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrTokenInvalid)
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role", ErrTokenInvalid)
	}

	return claims, nil
}

// ParseRefreshToken validates and parses a JWT refresh token with the same
// discipline as ParseAccessToken, additionally requiring kind == "refresh".
// An access token presented here is rejected.
func ParseRefreshToken(tokenString, secret string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Kind != tokenKindRefresh {
		return nil, fmt.Errorf("%w: wrong token kind", ErrTokenInvalid)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing token id", ErrTokenInvalid)
	}

	return claims, nil
}
