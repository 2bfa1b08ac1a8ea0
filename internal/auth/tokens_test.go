package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	actor := shared.Actor{TenantID: 42, UserID: 7, Role: shared.RoleManager}

	token, expiresAt, err := tm.Issue(actor)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	parsed, err := tm.Parse(token)
	require.NoError(t, err)
	require.Equal(t, actor, parsed)
}

func TestTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", time.Hour)
	token, _, err := tm.Issue(shared.Actor{TenantID: 1, UserID: 1, Role: shared.RoleOwner})
	require.NoError(t, err)

	other := NewTokenManager("secret-b", time.Hour)
	_, err = other.Parse(token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	tm.ttl = -time.Minute
	token, _, err := tm.Issue(shared.Actor{TenantID: 1, UserID: 1, Role: shared.RoleCashier})
	require.NoError(t, err)

	_, err = tm.Parse(token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	_, err := tm.Parse("not-a-token")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
