package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
)

// Config holds the dev server options.
type Config struct {
	// FrontendURL is the origin of the pages the OAuth callback redirects to.
	FrontendURL string
	// APIPrefix is where the API routes are mounted.
	APIPrefix    string
	SigningKey   string
	TokenTTL     time.Duration
	PasswordCost int
	Google       GoogleConfig
	// WasmPath is the browser client asset loaded by the login page.
	WasmPath string
	Debug    bool
}

// Validate will run validation rules
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.FrontendURL, validation.Required, is.URL),
		validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.PasswordCost, validation.Min(0), validation.Max(31)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid dev server configuration").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// RouteRegistrar captures the router methods used by the server.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// Server is a local stand in for the authentication API.
type Server struct {
	cfg       Config
	users     Users
	tokens    *Tokens
	passwords Passwords
	google    *google
	logger    authclient.Logger
	srv       router.Server[*fiber.App]
}

type Option func(*Server)

func WithLogger(logger authclient.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates the server over db. Call Migrate before serving.
func New(cfg Config, db *bun.DB, opts ...Option) (*Server, error) {
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}

	if cfg.WasmPath == "" {
		cfg.WasmPath = DefaultWasmPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Google.CallbackURL == "" {
		cfg.Google.CallbackURL = strings.TrimRight(cfg.FrontendURL, "/") + cfg.APIPrefix + "/auth/google/callback"
	}

	s := &Server{
		cfg:       cfg,
		users:     NewUsersRepository(db),
		tokens:    NewTokens([]byte(cfg.SigningKey), cfg.TokenTTL, "authdev"),
		passwords: Passwords{Cost: cfg.PasswordCost},
		google:    newGoogle(cfg.Google, []byte(cfg.SigningKey)),
		logger:    defLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	views, err := newViews()
	if err != nil {
		return nil, err
	}

	s.srv = router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:               "authdev",
			UnescapePath:          true,
			DisableStartupMessage: !cfg.Debug,
			Views:                 views,
		}))
	})

	s.RegisterRoutes(s.srv.Router())

	return s, nil
}

// Users exposes the user directory.
func (s *Server) Users() Users {
	return s.users
}

// Migrate creates the tables.
func (s *Server) Migrate(ctx context.Context) error {
	return s.users.Migrate(ctx)
}

// Serve blocks serving on addr.
func (s *Server) Serve(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.srv.Serve(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// RegisterRoutes mounts the login page and the API on r.
func (s *Server) RegisterRoutes(r RouteRegistrar) {
	p := s.cfg.APIPrefix
	r.Get("/login", s.LoginPage)
	r.Post(p+"/auth/login", s.Login)
	r.Get(p+"/auth/google", s.GoogleAuth)
	r.Get(p+"/auth/google/callback", s.GoogleCallback)
	r.Get(p+"/users/profile", s.Profile)
}

// LoginPayload is the login request body.
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

func (s *Server) Login(ctx router.Context) error {
	payload := new(LoginPayload)
	if err := ctx.Bind(payload); err != nil {
		s.logger.Error("login bind payload: %s", err)
		return ctx.JSON(router.StatusBadRequest, errorBody("Invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, errorBody("Email and password are required"))
	}

	if s.cfg.Debug {
		s.logger.Debug("login attempt: %s", print.MaybePrettyJSON(map[string]string{"email": payload.Email}))
	}

	user, err := s.users.FindByEmail(ctx.Context(), payload.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ctx.JSON(router.StatusUnauthorized, errorBody("Invalid credentials"))
		}
		return s.internalError(ctx, "login lookup", err)
	}

	if err := s.passwords.Compare(payload.Password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return ctx.JSON(router.StatusUnauthorized, errorBody("Invalid credentials"))
		}
		return s.internalError(ctx, "login compare", err)
	}

	if !user.CanLogin() {
		return ctx.JSON(router.StatusForbidden, map[string]any{
			"error":                 "Email not verified",
			"requires_verification": true,
			"email":                 user.Email,
		})
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return s.internalError(ctx, "login token", err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user.Profile(),
		"token":   token,
	})
}

func (s *Server) GoogleAuth(ctx router.Context) error {
	authURL, err := s.google.AuthCodeURL()
	if err != nil {
		s.logger.Error("google auth: %s", err)
		return ctx.JSON(router.StatusInternalServerError, errorBody("Failed to initiate Google authentication"))
	}
	return ctx.JSON(router.StatusOK, map[string]string{
		"auth_url": authURL,
	})
}

// GoogleCallback completes the provider round trip. The stand in provider
// treats the authorization code as the email of the signed in identity.
func (s *Server) GoogleCallback(ctx router.Context) error {
	if errCode := ctx.Query("error", ""); errCode != "" {
		return ctx.Redirect(s.frontend("/login", "error", errCode), http.StatusTemporaryRedirect)
	}

	code := ctx.Query("code", "")
	if code == "" {
		return ctx.Redirect(s.frontend("/login", "error", "no_code"), http.StatusTemporaryRedirect)
	}

	if err := s.google.verifyState(ctx.Query("state", "")); err != nil {
		s.logger.Warn("google callback: %s", err)
		return ctx.Redirect(s.frontend("/login", "error", "invalid_state"), http.StatusTemporaryRedirect)
	}

	user, err := s.users.FindByEmail(ctx.Context(), code)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ctx.Redirect(s.frontend("/login", "needs_registration", "true", "email", normalizeEmail(code)), http.StatusTemporaryRedirect)
		}
		s.logger.Error("google callback lookup: %s", err)
		return ctx.Redirect(s.frontend("/login", "error", "authentication_failed"), http.StatusTemporaryRedirect)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.Error("google callback token: %s", err)
		return ctx.Redirect(s.frontend("/login", "error", "authentication_failed"), http.StatusTemporaryRedirect)
	}

	dashboard := "/student-dashboard"
	if user.Role == RoleAdmin {
		dashboard = "/admin-dashboard"
	}

	return ctx.Redirect(s.frontend(dashboard, "token", token, "google_login", "true"), http.StatusTemporaryRedirect)
}

func (s *Server) Profile(ctx router.Context) error {
	header := ctx.Header("Authorization")
	if header == "" {
		return ctx.JSON(router.StatusUnauthorized, errorBody("Token is missing"))
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return ctx.JSON(router.StatusUnauthorized, errorBody("Invalid token format"))
	}

	claims, err := s.tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, errorBody("Token is invalid or expired"))
	}

	user, err := s.users.GetByID(ctx.Context(), claims.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ctx.JSON(http.StatusNotFound, errorBody("User not found"))
		}
		return s.internalError(ctx, "profile lookup", err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": user.Profile(),
	})
}

func (s *Server) internalError(ctx router.Context, op string, err error) error {
	s.logger.Error("%s: %s", op, err)
	return ctx.JSON(router.StatusInternalServerError, errorBody("Internal server error"))
}

func (s *Server) frontend(path string, kv ...string) string {
	u, err := url.Parse(strings.TrimRight(s.cfg.FrontendURL, "/") + path)
	if err != nil {
		return path
	}
	q := u.Query()
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
