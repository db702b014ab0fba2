package auth

import (
	"context"
	"testing"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, secret string) *Service {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemoryKV()
	bus := events.NewBus()
	users := registry.NewUserRegistry(ctx, kv, bus)
	return NewService(ctx, kv, bus, users, []byte(secret))
}

func TestService_LoginAndParse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, "test-secret")

	user, token, err := svc.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, registry.DefaultAdminID, user.ID)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, registry.DefaultAdminID, claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	session := svc.Session()
	require.NotNil(t, session)
	assert.Equal(t, registry.DefaultAdminID, session.UserID)
}

func TestService_Login_BadCredentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, "test-secret")

	_, _, err := svc.Login(ctx, "admin", "wrong")
	require.ErrorIs(t, err, registry.ErrInvalidCredentials)
	assert.Nil(t, svc.Session())
}

func TestService_Logout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, "test-secret")

	_, _, err := svc.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	require.NotNil(t, svc.Session())

	require.NoError(t, svc.Logout(ctx))
	assert.Nil(t, svc.Session())
}

func TestService_ParseToken_Rejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, "test-secret")

	_, err := svc.ParseToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	// Token signed with a different secret.
	other := newTestService(t, "other-secret")
	_, token, err := other.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	_, err = svc.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Unsigned token.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseToken(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)
}
