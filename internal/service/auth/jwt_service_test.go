package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	accountID := uuid.New()

	valid := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		Issuer:    "recall-auth",
		IssuedAt:  jwt.NewNumericDate(fixedTime.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		ID:        "token-1",
	}

	tests := []struct {
		name    string
		issuer  string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:  "valid token",
			token: func(t *testing.T) string { return signToken(t, testSecret, jwt.SigningMethodHS256, valid) },
		},
		{
			name:   "valid token with matching issuer",
			issuer: "recall-auth",
			token:  func(t *testing.T) string { return signToken(t, testSecret, jwt.SigningMethodHS256, valid) },
		},
		{
			name:    "issuer mismatch",
			issuer:  "someone-else",
			token:   func(t *testing.T) string { return signToken(t, testSecret, jwt.SigningMethodHS256, valid) },
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				c := valid
				c.ExpiresAt = jwt.NewNumericDate(fixedTime.Add(-time.Hour))
				return signToken(t, testSecret, jwt.SigningMethodHS256, c)
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "expiry within clock skew is accepted",
			token: func(t *testing.T) string {
				c := valid
				c.ExpiresAt = jwt.NewNumericDate(fixedTime.Add(-time.Minute))
				return signToken(t, testSecret, jwt.SigningMethodHS256, c)
			},
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				c := valid
				c.NotBefore = jwt.NewNumericDate(fixedTime.Add(time.Hour))
				return signToken(t, testSecret, jwt.SigningMethodHS256, c)
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "missing expiry",
			token: func(t *testing.T) string {
				c := valid
				c.ExpiresAt = nil
				return signToken(t, testSecret, jwt.SigningMethodHS256, c)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong secret",
			token:   func(t *testing.T) string { return signToken(t, wrongSecret, jwt.SigningMethodHS256, valid) },
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong algorithm",
			token:   func(t *testing.T) string { return signToken(t, testSecret, jwt.SigningMethodHS512, valid) },
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty token",
			token:   func(t *testing.T) string { return "" },
			wantErr: ErrMissingToken,
		},
		{
			name: "subject is not a uuid",
			token: func(t *testing.T) string {
				c := valid
				c.Subject = "user@example.com"
				return signToken(t, testSecret, jwt.SigningMethodHS256, c)
			},
			wantErr: ErrInvalidSubject,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, err := newHMACJWTService(
				config.AuthConfig{JWTSecret: testSecret, Issuer: tc.issuer},
				func() time.Time { return fixedTime },
			)
			require.NoError(t, err)

			claims, err := svc.ValidateToken(context.Background(), tc.token(t))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, accountID, claims.AccountID)
			assert.Equal(t, "token-1", claims.ID)
			assert.Equal(t, fixedTime.Add(-time.Minute).Unix(), claims.IssuedAt.Unix())
		})
	}
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestMockJWTService(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	m := NewMockJWTService().WithAccountID(accountID)

	claims, err := m.ValidateToken(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)

	m.WithValidationError(ErrExpiredToken)
	_, err = m.ValidateToken(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrExpiredToken)
}
