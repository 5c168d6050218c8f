package credential

import (
	"context"
	"testing"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/repo/kvstore"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "researcher-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestFromRespPrefersJWTExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(2 * time.Hour)

	tok := FromResp(&repo.TokenResp{AccessToken: signed(t, exp), ExpiresIn: 60}, now)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.True(t, tok.Expiry.Equal(exp))

	opaque := FromResp(&repo.TokenResp{AccessToken: "opaque", ExpiresIn: 60}, now)
	assert.True(t, opaque.Expiry.Equal(now.Add(time.Minute)))
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	c := New(kvstore.NewMemory())

	bearer, err := c.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, bearer)

	_, err = c.Load(ctx)
	assert.ErrorIs(t, err, code.NotFoundErr)

	access := signed(t, time.Now().Add(time.Hour))
	require.NoError(t, c.Save(ctx, &oauth2.Token{AccessToken: access, RefreshToken: "r1"}))

	tok, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", tok.RefreshToken)
	assert.False(t, tok.Expiry.IsZero())

	bearer, err = c.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, access, bearer)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Load(ctx)
	assert.ErrorIs(t, err, code.NotFoundErr)
}

func TestExpiredAccessToken(t *testing.T) {
	ctx := context.Background()
	c := New(kvstore.NewMemory())
	require.NoError(t, c.Save(ctx, &oauth2.Token{AccessToken: signed(t, time.Now().Add(-time.Minute))}))

	_, err := c.AccessToken(ctx)
	assert.ErrorIs(t, err, code.TokenExpired)
}

func TestSaveRejectsEmpty(t *testing.T) {
	err := New(kvstore.NewMemory()).Save(context.Background(), &oauth2.Token{})
	assert.ErrorIs(t, err, code.InvalidToken)
}
