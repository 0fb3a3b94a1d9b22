package devserver

import (
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const defaultGoogleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

var ErrInvalidState = goerrors.New("invalid oauth state", goerrors.CategoryAuth).
	WithTextCode("INVALID_STATE").
	WithCode(goerrors.CodeUnauthorized)

// GoogleConfig holds the OAuth client settings. An empty ClientID disables
// Google sign in.
type GoogleConfig struct {
	ClientID    string
	CallbackURL string
	AuthURL     string
	Scopes      []string
}

// DefaultScopes returns the default Google scopes.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

// google builds authorization URLs and checks the state parameter on the
// way back. State is a short lived signed token, nothing is kept server side.
type google struct {
	cfg      GoogleConfig
	stateKey []byte
	stateTTL time.Duration
}

func newGoogle(cfg GoogleConfig, stateKey []byte) *google {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultGoogleAuthURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	return &google{cfg: cfg, stateKey: stateKey, stateTTL: 10 * time.Minute}
}

func (g *google) enabled() bool {
	return g.cfg.ClientID != ""
}

// AuthCodeURL returns the consent page URL.
func (g *google) AuthCodeURL() (string, error) {
	if !g.enabled() {
		return "", goerrors.New("google sign in is not configured", goerrors.CategoryOperation)
	}

	state, err := g.encodeState()
	if err != nil {
		return "", err
	}

	u, err := url.Parse(g.cfg.AuthURL)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "invalid google auth url")
	}

	q := u.Query()
	q.Set("client_id", g.cfg.ClientID)
	q.Set("redirect_uri", g.cfg.CallbackURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(g.cfg.Scopes, " "))
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (g *google) encodeState() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Audience:  jwt.ClaimStrings{g.cfg.ClientID},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.stateTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.stateKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign oauth state")
	}
	return signed, nil
}

func (g *google) verifyState(state string) error {
	if state == "" {
		return ErrInvalidState
	}
	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return g.stateKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(g.cfg.ClientID),
	)
	if err != nil {
		clone := ErrInvalidState.Clone()
		clone.Source = err
		return clone
	}
	return nil
}
