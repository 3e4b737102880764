package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestUsable(t *testing.T) {
	require.False(t, Usable(""))
	require.True(t, Usable("opaque-session-token"))
	require.True(t, Usable(signedToken(t, time.Now().Add(time.Hour))))
	require.False(t, Usable(signedToken(t, time.Now().Add(-time.Hour))))
}

func TestStaticTokenSource(t *testing.T) {
	ctx := context.Background()

	_, ok := NewStaticTokenSource("").Credential(ctx)
	require.False(t, ok)

	tok := signedToken(t, time.Now().Add(time.Hour))
	got, ok := NewStaticTokenSource(tok).Credential(ctx)
	require.True(t, ok)
	require.Equal(t, tok, got)

	_, ok = NewStaticTokenSource(signedToken(t, time.Now().Add(-time.Minute))).Credential(ctx)
	require.False(t, ok, "expired jwt must not be presented")
}

func TestTokenHolderSwapsMidSession(t *testing.T) {
	ctx := context.Background()
	holder := NewTokenHolder()

	_, ok := holder.Credential(ctx)
	require.False(t, ok)

	holder.Set("opaque-token")
	got, ok := holder.Credential(ctx)
	require.True(t, ok)
	require.Equal(t, "opaque-token", got)

	holder.Set("")
	_, ok = holder.Credential(ctx)
	require.False(t, ok)
}
