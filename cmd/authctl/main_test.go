package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req authclient.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}
		if req.Password != "good" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"token":   "student-token",
			"user":    map[string]any{"user_id": "u-1", "role": "student", "email": req.Email},
		})
	})
	mux.HandleFunc("/api/auth/google", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"auth_url": "https://accounts.example.com/auth?state=s"})
	})
	mux.HandleFunc("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer admin-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token is invalid or expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{"user_id": "a-1", "role": "admin", "email": "admin@example.com"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	t      *testing.T
	origin string
	store  string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:      t,
		origin: fakeAPI(t).URL,
		store:  "file:" + filepath.Join(t.TempDir(), "session.db"),
	}
}

func (h *harness) execute(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(viper.New(), strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{"--origin", h.origin, "--store", h.store}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginStatusLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.execute("", "login", "--email", "student@example.com", "--password", "good")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] "+authclient.MsgLoginSuccess)
	assert.Contains(t, out, "-> /student-dashboard")

	out, err = h.execute("", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "-> /student-dashboard")
	assert.Contains(t, out, "student@example.com")

	out, err = h.execute("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "-> /login")

	out, err = h.execute("", "status")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "not signed in")
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	out, err := h.execute("", "login", "--email", "student@example.com", "--password", "bad")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "[ERR] Invalid credentials")
	assert.NotContains(t, out, "->")
}

func TestLoginPromptsForPassword(t *testing.T) {
	h := newHarness(t)

	out, err := h.execute("good\n", "login", "--email", "student@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "-> /student-dashboard")
}

func TestLoginPasswordFromEnv(t *testing.T) {
	t.Setenv("AUTHCTL_PASSWORD", "good")
	h := newHarness(t)

	out, err := h.execute("", "login", "--email", "student@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "-> /student-dashboard")
}

func TestGoogle(t *testing.T) {
	h := newHarness(t)

	out, err := h.execute("", "google")
	require.NoError(t, err)
	assert.Contains(t, out, "[INF] "+authclient.MsgGoogleRedirecting)
	assert.Contains(t, out, "-> https://accounts.example.com/auth?state=s")
}

func TestCallback(t *testing.T) {
	t.Run("token", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.execute("", "callback", "http://localhost:5000/admin-dashboard?token=admin-token&google_login=true")
		require.NoError(t, err)
		assert.Contains(t, out, "[OK] "+authclient.MsgGoogleSuccess)
		assert.Contains(t, out, "-> /admin-dashboard")

		out, err = h.execute("", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "admin@example.com")
	})

	t.Run("profile rejected", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.execute("", "callback", "http://localhost:5000/student-dashboard?token=stale")
		assert.ErrorIs(t, err, errReported)
		assert.Contains(t, out, "[ERR] "+authclient.MsgProfileFailed)
	})

	t.Run("needs registration", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.execute("", "callback", "http://localhost:5000/login?needs_registration=true&email=new@example.com")
		require.NoError(t, err)
		assert.Contains(t, out, "-> /register?google=true")
	})

	t.Run("provider error", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.execute("", "callback", "http://localhost:5000/login?error=access_denied")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access_denied")

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
		assert.Equal(t, "access_denied", richErr.Metadata["provider_error"])
	})

	t.Run("no token", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.execute("", "callback", "http://localhost:5000/student-dashboard")
		require.Error(t, err)
		assert.NotErrorIs(t, err, errReported)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryBadInput, richErr.Category)
		assert.Equal(t, authclient.TextCodeMissingToken, richErr.TextCode)
	})

	t.Run("malformed url", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.execute("", "callback", "http://[::1")
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryBadInput, richErr.Category)
		assert.Equal(t, "http://[::1", richErr.Metadata["location"])
	})
}

func TestInvalidTokenPolicy(t *testing.T) {
	h := newHarness(t)

	_, err := h.execute("", "--token-policy", "verify", "status")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errReported)
}
