package authenticating

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

func TestValidateToken(t *testing.T) {
	svc := NewService(config.Auth{Secret: "segredo"})

	t.Run("admin token", func(t *testing.T) {
		token, err := svc.IssueToken("op-1", "ops@example.com", RoleAdmin, time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "op-1", claims.OperatorID)
		assert.Equal(t, "ops@example.com", claims.OperatorEmail)
	})

	t.Run("non admin", func(t *testing.T) {
		token, err := svc.IssueToken("op-2", "", 3, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrOperatorNotAllowed)
		assert.True(t, IsAuthorizationError(err))
	})

	t.Run("expired", func(t *testing.T) {
		s := &Service{secret: []byte("segredo"), now: func() time.Time { return time.Now().Add(-48 * time.Hour) }}
		token, err := s.IssueToken("op-1", "", RoleAdmin, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(config.Auth{Secret: "outro"})
		token, err := other.IssueToken("op-1", "", RoleAdmin, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, domain.Claims{OperatorID: "op-1", RoleID: RoleAdmin})
		signed, err := token.SignedString([]byte("segredo"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing operator", func(t *testing.T) {
		_, err := svc.IssueToken("", "", RoleAdmin, time.Hour)
		assert.ErrorIs(t, err, ErrMissingOperator)
	})
}
