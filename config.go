package authclient

import (
	"errors"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// TokenPolicy decides when a stored token still counts as a session.
type TokenPolicy string

const (
	// TokenPolicyPresence trusts any stored token until logout.
	TokenPolicyPresence TokenPolicy = "presence"
	// TokenPolicyExpiry rejects JWTs whose exp claim is in the past.
	// Tokens that are not JWTs are trusted.
	TokenPolicyExpiry TokenPolicy = "expiry"
	// TokenPolicyVerify checks the signature against a JWKS endpoint and
	// rejects expired tokens.
	TokenPolicyVerify TokenPolicy = "verify"
)

const (
	DefaultAlertDuration     = 5 * time.Second
	DefaultRedirectDelay     = time.Second
	DefaultRegistrationDelay = 2 * time.Second
)

// Routes are the navigation targets produced by the controller.
type Routes struct {
	AdminDashboard   string
	StudentDashboard string
	Login            string
	Register         string
	// DashboardMarker is the path fragment that identifies dashboard pages.
	DashboardMarker string
}

// Elements are the ids of the page elements the controller talks to.
type Elements struct {
	AlertContainer  string
	TogglePassword  string
	Password        string
	EyeIcon         string
	GoogleSignInBtn string
	LoginForm       string
	LoginBtn        string
	Email           string
}

type StorageKeys struct {
	Token string
	User  string
}

// Config holds the controller options.
type Config struct {
	// BaseURL is the API root, usually <origin>/api.
	BaseURL string

	AlertDuration     time.Duration
	RedirectDelay     time.Duration
	RegistrationDelay time.Duration

	// RequestTimeout bounds every API request. Zero means no timeout.
	RequestTimeout time.Duration

	TokenPolicy TokenPolicy
	// JWKSURL is required by TokenPolicyVerify.
	JWKSURL string

	Routes      Routes
	Elements    Elements
	StorageKeys StorageKeys

	Debug bool
}

// DefaultConfig returns the configuration for an API served from origin.
func DefaultConfig(origin string) Config {
	return Config{
		BaseURL:           APIBaseFromOrigin(origin),
		AlertDuration:     DefaultAlertDuration,
		RedirectDelay:     DefaultRedirectDelay,
		RegistrationDelay: DefaultRegistrationDelay,
		TokenPolicy:       TokenPolicyPresence,
		Routes: Routes{
			AdminDashboard:   "/admin-dashboard",
			StudentDashboard: "/student-dashboard",
			Login:            "/login",
			Register:         "/register?google=true",
			DashboardMarker:  "dashboard",
		},
		Elements: Elements{
			AlertContainer:  "alertContainer",
			TogglePassword:  "togglePassword",
			Password:        "password",
			EyeIcon:         "eyeIcon",
			GoogleSignInBtn: "googleSignInBtn",
			LoginForm:       "loginForm",
			LoginBtn:        "loginBtn",
			Email:           "email",
		},
		StorageKeys: StorageKeys{
			Token: "token",
			User:  "user",
		},
	}
}

// APIBaseFromOrigin returns <protocol>//<host>/api for a page origin. Any
// path on origin is dropped.
func APIBaseFromOrigin(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return strings.TrimRight(origin, "/") + "/api"
	}
	return u.Scheme + "://" + u.Host + "/api"
}

// Validate will run validation rules
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.AlertDuration, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.RedirectDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.RegistrationDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(
			&c.TokenPolicy,
			validation.Required,
			validation.In(TokenPolicyPresence, TokenPolicyExpiry, TokenPolicyVerify),
		),
		validation.Field(
			&c.JWKSURL,
			is.URL,
			validation.By(requiredForPolicy(c.TokenPolicy, TokenPolicyVerify)),
		),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid auth client configuration").
			WithTextCode(TextCodeInvalidConfig).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func requiredForPolicy(current, policy TokenPolicy) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if current == policy && strings.TrimSpace(s) == "" {
			return errors.New("is required for token policy " + string(policy))
		}
		return nil
	}
}

// Option configures an AuthClient.
type Option func(*AuthClient)

func WithLogger(logger Logger) Option {
	return func(a *AuthClient) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(a *AuthClient) {
		if s != nil {
			a.scheduler = s
		}
	}
}

// WithAPI replaces the HTTP API client, mostly for tests.
func WithAPI(api RemoteAPI) Option {
	return func(a *AuthClient) {
		if api != nil {
			a.api = api
		}
	}
}

func WithTokenInspector(inspector TokenInspector) Option {
	return func(a *AuthClient) {
		if inspector != nil {
			a.inspector = inspector
		}
	}
}
