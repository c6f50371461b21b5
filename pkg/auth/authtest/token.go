// Package authtest mints access tokens for tests. Production tokens come from
// the identity service.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopfront/retail-backend/pkg/auth"
	"github.com/shopfront/retail-backend/pkg/config"
	"github.com/shopfront/retail-backend/pkg/enums"
)

// Config returns a JWT configuration shared by tests.
func Config() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "retail-test"}
}

// Mint signs a token for the user valid for ttl from now. A negative ttl
// produces an expired token.
func Mint(t testing.TB, cfg config.JWTConfig, userID uuid.UUID, userType enums.UserType, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := auth.AccessTokenClaims{
		UserID:   userID,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(auth.SigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
