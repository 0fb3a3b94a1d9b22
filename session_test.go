package authclient_test

import (
	"encoding/json"
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleDashboard(t *testing.T) {
	routes := authclient.DefaultConfig("http://localhost").Routes

	assert.Equal(t, "/admin-dashboard", authclient.RoleAdmin.Dashboard(routes))
	assert.Equal(t, "/student-dashboard", authclient.RoleStudent.Dashboard(routes))
	assert.Equal(t, "/student-dashboard", authclient.Role("").Dashboard(routes))
	assert.Equal(t, "/student-dashboard", authclient.Role("Admin").Dashboard(routes))
}

func TestUserKeepsUnknownFields(t *testing.T) {
	input := `{"user_id": 12, "role": "student", "sr_code": "21-12345", "year_level": "3",
		"email_verified": true, "middle_name": "Q", "notifications": [1, 2]}`

	var user authclient.User
	require.NoError(t, json.Unmarshal([]byte(input), &user))

	assert.Equal(t, authclient.RoleStudent, user.Role)
	assert.Equal(t, "21-12345", user.SRCode)
	assert.Equal(t, 3, user.YearLevel)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, "12", user.ID())
	assert.False(t, user.IsAdmin())

	middle, ok := user.Field("middle_name")
	require.True(t, ok)
	assert.Equal(t, "Q", middle)

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(data))
}

func TestUserWithoutRawDocument(t *testing.T) {
	user := authclient.User{Role: authclient.RoleAdmin, Email: "root@example.com", YearLevel: 2}

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"admin","email":"root@example.com","year_level":2}`, string(data))
	assert.Equal(t, "", user.ID())
}

func TestUserNullIsNoop(t *testing.T) {
	user := authclient.User{Role: authclient.RoleAdmin}
	require.NoError(t, json.Unmarshal([]byte("null"), &user))
	assert.Equal(t, authclient.RoleAdmin, user.Role)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	storage := authclient.NewMemoryStorage()
	store := authclient.NewSessionStore(storage, authclient.StorageKeys{})

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))

	var user authclient.User
	require.NoError(t, json.Unmarshal([]byte(`{"role":"student"}`), &user))
	require.NoError(t, store.Save(authclient.Session{Token: "abc", User: user}))

	raw, ok := storage.Get("user")
	require.True(t, ok)
	assert.Equal(t, `{"role":"student"}`, raw)

	session, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", session.Token)
	assert.Equal(t, authclient.RoleStudent, session.User.Role)

	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	assert.Equal(t, 0, storage.Len())
}

func TestSessionStoreCustomKeys(t *testing.T) {
	storage := authclient.NewMemoryStorage()
	store := authclient.NewSessionStore(storage, authclient.StorageKeys{Token: "jwt", User: "profile"})

	require.NoError(t, store.SaveToken("t"))
	_, err := store.Load()
	assert.True(t, goerrors.IsNotFound(err), "a token alone is not a session")

	require.NoError(t, store.SaveUser(authclient.User{Role: authclient.RoleAdmin}))

	_, ok := storage.Get("token")
	assert.False(t, ok)
	jwt, ok := storage.Get("jwt")
	assert.True(t, ok)
	assert.Equal(t, "t", jwt)

	session, err := store.Load()
	require.NoError(t, err)
	assert.True(t, session.User.IsAdmin())
}

func TestSessionStoreUnreadableUser(t *testing.T) {
	storage := authclient.NewMemoryStorage()
	require.NoError(t, storage.Set("token", "t"))
	require.NoError(t, storage.Set("user", "not json"))

	_, err := authclient.NewSessionStore(storage, authclient.StorageKeys{}).Load()
	require.Error(t, err)
	assert.False(t, goerrors.IsNotFound(err))
}
