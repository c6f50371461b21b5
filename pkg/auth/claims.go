package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopfront/retail-backend/pkg/enums"
)

// AccessTokenClaims represents the bearer token presented by clients. Tokens
// are minted by the identity service; this service only verifies them.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	UserType enums.UserType `json:"user_type"`
	jwt.RegisteredClaims
}
