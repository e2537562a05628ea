package services

import (
	"context"
	"testing"
	"time"

	"pennybid/domain/entities"
	"pennybid/infrastructure/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthHarness(t *testing.T) (*AuthService, *engineHarness, *identity.JWT) {
	t.Helper()

	h := newEngineHarness(t, EngineConfig{})
	tokens := identity.NewJWT("test-secret", time.Hour)
	auth := NewAuthService(h.uow, h.wallets, tokens, identity.NewTokenProvider(tokens))
	auth.hashCost = bcrypt.MinCost
	return auth, h, tokens
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	auth, h, _ := newAuthHarness(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "  Alice@Example.com ", "secret1", " Alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	wallet := h.wallet(t, user.ID)
	assert.Equal(t, int64(0), wallet.Balance)
	assert.Equal(t, int64(0), wallet.LifetimeDeposit)
}

func TestAuthService_RegisterRejects(t *testing.T) {
	t.Parallel()

	auth, _, _ := newAuthHarness(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		wantErr  error
	}{
		{"duplicate email", "alice@example.com", "secret1", "Other", entities.ErrUserExists},
		{"duplicate email in other case", "ALICE@example.com", "secret1", "Other", entities.ErrUserExists},
		{"invalid email", "alice", "secret1", "Alice", nil},
		{"short password", "bob@example.com", "123", "Bob", nil},
		{"blank name", "bob@example.com", "secret1", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tt.email, tt.password, tt.userName)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	auth, _, tokens := newAuthHarness(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)

	token, err := auth.Login(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, err = auth.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestAuthService_Me(t *testing.T) {
	t.Parallel()

	auth, _, tokens := newAuthHarness(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	token, err := auth.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	me, err := auth.Me(identity.WithToken(ctx, token))
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	_, err = auth.Me(ctx)
	assert.ErrorIs(t, err, entities.ErrUnauthenticated)

	// a valid token for a user that does not exist
	ghost, err := tokens.Issue(9999)
	require.NoError(t, err)
	_, err = auth.Me(identity.WithToken(ctx, ghost))
	assert.ErrorIs(t, err, entities.ErrUnauthenticated)
}
