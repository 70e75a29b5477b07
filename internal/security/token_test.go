package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)

	token, err := tm.GenerateAccessToken("u-1", "ops@gearrent.test", []string{RoleAdmin})
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.True(t, claims.IsAdmin())

	id, err := tm.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "u-1", Email: "ops@gearrent.test", Admin: true, Source: "jwt"}, id)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("another-secret-another-secret-xx", time.Hour)
		token, err := other.GenerateAccessToken("u-1", "", nil)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		m := tm.(*tokenManager)
		m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := m.GenerateAccessToken("u-1", "", nil)
		m.now = time.Now
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

type mockIDTokenVerifier struct {
	mock.Mock
}

func (m *mockIDTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Token), args.Error(1)
}

func TestFirebaseVerifier(t *testing.T) {
	ctx := context.Background()
	client := new(mockIDTokenVerifier)
	client.On("VerifyIDToken", ctx, "good").Return(&auth.Token{
		UID:    "fb-1",
		Claims: map[string]interface{}{"email": "ana@example.com", "admin": true},
	}, nil)
	client.On("VerifyIDToken", ctx, "bad").Return(nil, errors.New("signature mismatch"))

	v := NewFirebaseVerifier(client)

	id, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", id.UserID)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.True(t, id.Admin)
	assert.Equal(t, "firebase", id.Source)

	_, err = v.Verify(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	tm := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	client := new(mockIDTokenVerifier)
	client.On("VerifyIDToken", ctx, mock.Anything).Return(nil, errors.New("not a firebase token"))
	chain := Chain{NewFirebaseVerifier(client), tm}

	token, err := tm.GenerateAccessToken("svc", "", nil)
	require.NoError(t, err)

	id, err := chain.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "svc", id.UserID)
	assert.False(t, id.Admin)

	_, err = chain.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = chain.Verify(ctx, "junk")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{UserID: "u-1"})
	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-1", id.UserID)
}
