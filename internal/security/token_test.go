package security

import (
	"context"
	"testing"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, "")
	actor := domain.Actor{UserID: "vendor-1", Role: domain.RoleVendor}

	token, err := tm.GenerateAccessToken(actor)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, claims.Actor())
	assert.Equal(t, "rentdesk", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateAccessToken_Rejects(t *testing.T) {
	tm := NewTokenManager(testSecret, "")

	_, err := tm.GenerateAccessToken(domain.Actor{Role: domain.RoleCustomer})
	assert.Error(t, err)

	_, err = tm.GenerateAccessToken(domain.Actor{UserID: "u1", Role: "GUEST"})
	assert.Error(t, err)
}

func TestValidateToken_Failures(t *testing.T) {
	tm := NewTokenManager(testSecret, "")
	actor := domain.Actor{UserID: "c1", Role: domain.RoleCustomer}

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", "")
		token, err := other.GenerateAccessToken(actor)
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager(testSecret, "someone-else")
		token, err := other.GenerateAccessToken(actor)
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenManager(testSecret, "").(*tokenManager)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.GenerateAccessToken(actor)
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong type", func(t *testing.T) {
		now := time.Now()
		claims := ActorClaims{
			Role: domain.RoleCustomer,
			Type: "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "c1",
				Issuer:    "rentdesk",
				Audience:  jwt.ClaimStrings{accessAudience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	actor := domain.Actor{UserID: "a1", Role: domain.RoleAdmin}
	got, ok := ActorFromContext(WithActor(context.Background(), actor))
	require.True(t, ok)
	assert.Equal(t, actor, got)
}
