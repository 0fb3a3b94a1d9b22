package authclient

import (
	"context"
	"errors"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenInspector decides whether a stored token still makes a session.
type TokenInspector interface {
	Inspect(ctx context.Context, token string) error
}

// TokenInspectorFunc adapts a function to TokenInspector.
type TokenInspectorFunc func(ctx context.Context, token string) error

func (f TokenInspectorFunc) Inspect(ctx context.Context, token string) error {
	return f(ctx, token)
}

// PresenceInspector accepts every token.
type PresenceInspector struct{}

func (PresenceInspector) Inspect(context.Context, string) error {
	return nil
}

// ExpiryInspector rejects JWTs past their exp claim without checking the
// signature. Tokens that do not parse as JWTs are accepted.
type ExpiryInspector struct {
	Now func() time.Time
}

func (i ExpiryInspector) Inspect(_ context.Context, token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return withCause(ErrTokenInvalid, err, nil)
	}
	if exp == nil {
		return nil
	}

	if !i.now().Before(exp.Time) {
		return withCause(ErrSessionExpired, nil, map[string]any{
			"expired_at": exp.Time,
		})
	}
	return nil
}

func (i ExpiryInspector) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// VerifyingInspector checks the signature and the registered claims of a
// stored token.
type VerifyingInspector struct {
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
	jwks    *keyfunc.JWKS
}

// NewVerifyingInspector uses kf to resolve signing keys.
func NewVerifyingInspector(kf jwt.Keyfunc, opts ...jwt.ParserOption) *VerifyingInspector {
	return &VerifyingInspector{
		keyFunc: kf,
		parser:  jwt.NewParser(opts...),
	}
}

// NewJWKSInspector fetches the key set at jwksURL and keeps it refreshed
// in the background until Close is called.
func NewJWKSInspector(jwksURL string, logger Logger) (*VerifyingInspector, error) {
	if logger == nil {
		logger = defLogger{}
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Error("failed to do a background refresh of JWKS: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load JWKS").
			WithTextCode(TextCodeTransport)
	}

	inspector := NewVerifyingInspector(jwks.Keyfunc)
	inspector.jwks = jwks
	return inspector, nil
}

func (i *VerifyingInspector) Inspect(_ context.Context, token string) error {
	if _, err := i.parser.Parse(token, i.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return withCause(ErrSessionExpired, err, nil)
		}
		return withCause(ErrTokenInvalid, err, nil)
	}
	return nil
}

// Close stops the JWKS background refresh, if any.
func (i *VerifyingInspector) Close() {
	if i.jwks != nil {
		i.jwks.EndBackground()
	}
}

// NewTokenInspector returns the inspector for the configured policy.
func NewTokenInspector(cfg Config, logger Logger) (TokenInspector, error) {
	switch cfg.TokenPolicy {
	case TokenPolicyExpiry:
		return ExpiryInspector{}, nil
	case TokenPolicyVerify:
		return NewJWKSInspector(cfg.JWKSURL, logger)
	default:
		return PresenceInspector{}, nil
	}
}
