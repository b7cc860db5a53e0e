package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService validates bearer tokens issued by the identity provider.
type JWTService interface {
	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns the claims containing account information if the token is valid,
	// or an error if validation fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated contents of an access token.
type Claims struct {
	// AccountID is the account the token was issued for, parsed from sub.
	AccountID uuid.UUID `json:"-"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	Issuer    string    `json:"iss,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
