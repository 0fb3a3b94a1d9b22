package authclient_test

import (
	"context"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryInspector(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inspector := authclient.ExpiryInspector{Now: func() time.Time { return now }}
	ctx := context.Background()

	valid := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Minute).Unix()})
	assert.NoError(t, inspector.Inspect(ctx, valid))

	noExp := signedToken(t, jwt.MapClaims{"sub": "1"})
	assert.NoError(t, inspector.Inspect(ctx, noExp))

	assert.NoError(t, inspector.Inspect(ctx, "opaque-session-token"))

	expired := signedToken(t, jwt.MapClaims{"exp": now.Unix()})
	err := inspector.Inspect(ctx, expired)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, authclient.TextCodeSessionExpired, richErr.TextCode)
}

func TestVerifyingInspector(t *testing.T) {
	secret := []byte("verify-secret")
	jwks := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		"dev": keyfunc.NewGivenCustom(secret, keyfunc.GivenKeyOptions{
			Algorithm: jwt.SigningMethodHS256.Alg(),
		}),
	})
	inspector := authclient.NewVerifyingInspector(jwks.Keyfunc)
	ctx := context.Background()

	sign := func(kid string, key []byte, claims jwt.MapClaims) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		token.Header["kid"] = kid
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		return signed
	}

	ok := sign("dev", secret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	assert.NoError(t, inspector.Inspect(ctx, ok))

	expired := sign("dev", secret, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	err := inspector.Inspect(ctx, expired)
	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, authclient.TextCodeSessionExpired, richErr.TextCode)

	forged := sign("dev", []byte("other"), jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	err = inspector.Inspect(ctx, forged)
	require.Error(t, err)
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, authclient.TextCodeTokenInvalid, richErr.TextCode)

	assert.Error(t, inspector.Inspect(ctx, "opaque"))
	inspector.Close()
}

func TestNewTokenInspector(t *testing.T) {
	cfg := authclient.DefaultConfig("http://localhost")

	inspector, err := authclient.NewTokenInspector(cfg, authclient.NopLogger{})
	require.NoError(t, err)
	assert.IsType(t, authclient.PresenceInspector{}, inspector)

	cfg.TokenPolicy = authclient.TokenPolicyExpiry
	inspector, err = authclient.NewTokenInspector(cfg, authclient.NopLogger{})
	require.NoError(t, err)
	assert.IsType(t, authclient.ExpiryInspector{}, inspector)
}

func TestTokenInspectorFunc(t *testing.T) {
	called := ""
	var inspector authclient.TokenInspector = authclient.TokenInspectorFunc(func(_ context.Context, token string) error {
		called = token
		return authclient.ErrSessionExpired
	})

	env := newTestEnv(t, "", newFakePage("/login", nil))
	client, err := authclient.New(authclient.DefaultConfig("http://localhost"), env.page, env.storage,
		authclient.WithScheduler(env.scheduler),
		authclient.WithLogger(authclient.NopLogger{}),
		authclient.WithTokenInspector(inspector),
	)
	require.NoError(t, err)

	require.NoError(t, env.storage.Set("token", "abc"))
	require.NoError(t, env.storage.Set("user", `{"role":"admin"}`))

	assert.False(t, client.CheckExistingSession(context.Background()))
	assert.Equal(t, "abc", called)
	assert.Equal(t, 0, env.storage.Len())
}
