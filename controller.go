package authclient

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const (
	inputTypePassword = "password"
	inputTypeText     = "text"

	queryToken             = "token"
	queryNeedsRegistration = "needs_registration"
)

// AuthClient binds a login page to the remote authentication API.
type AuthClient struct {
	cfg       Config
	page      Page
	sessions  *SessionStore
	api       RemoteAPI
	scheduler Scheduler
	inspector TokenInspector
	logger    Logger

	mu        sync.Mutex
	navigated string
}

// New creates an AuthClient. The default API client and token inspector
// are built from cfg unless replaced through options.
func New(cfg Config, page Page, storage Storage, opts ...Option) (*AuthClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if page == nil {
		return nil, goerrors.New("page is required", goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidConfig)
	}

	if storage == nil {
		return nil, goerrors.New("storage is required", goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidConfig)
	}

	a := &AuthClient{
		cfg:      cfg,
		page:     page,
		sessions: NewSessionStore(storage, cfg.StorageKeys),
		logger:   defLogger{},
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.scheduler == nil {
		a.scheduler = NewTimerScheduler()
	}

	if a.api == nil {
		a.api = NewAPIClient(cfg.BaseURL,
			WithRequestTimeout(cfg.RequestTimeout),
			WithAPILogger(a.logger),
			WithAPIDebug(cfg.Debug),
		)
	}

	if a.inspector == nil {
		inspector, err := NewTokenInspector(cfg, a.logger)
		if err != nil {
			return nil, err
		}
		a.inspector = inspector
	}

	return a, nil
}

// Sessions exposes the session store.
func (a *AuthClient) Sessions() *SessionStore {
	return a.sessions
}

// Init attaches the page handlers and runs the page load checks.
func (a *AuthClient) Init(ctx context.Context) {
	el := a.cfg.Elements

	if a.has(el.TogglePassword) {
		a.page.OnClick(el.TogglePassword, a.TogglePasswordVisibility)
	}

	if a.has(el.GoogleSignInBtn) {
		a.page.OnClick(el.GoogleSignInBtn, func() {
			a.InitiateExternalSignIn(ctx)
		})
	}

	if a.has(el.LoginForm) {
		a.page.OnSubmit(el.LoginForm, func() {
			email := a.page.Value(el.Email)
			password := a.page.Value(el.Password)
			a.SubmitCredentials(ctx, email, password)
		})
	}

	a.CheckExistingSession(ctx)
	a.CompleteOAuthCallback(ctx)
}

// ShowAlert replaces the current alert and schedules its removal.
func (a *AuthClient) ShowAlert(message string, severity Severity) {
	alert := Alert{Message: message, Severity: ParseSeverity(string(severity))}
	container := a.cfg.Elements.AlertContainer

	a.page.RenderAlert(container, alert)
	a.scheduler.Schedule(taskClearAlert, a.cfg.AlertDuration, func() {
		a.page.ClearAlert(container)
	})
}

// SubmitCredentials logs in with email and password. Failures end up as
// alerts, the login control is re-enabled on every failure path.
func (a *AuthClient) SubmitCredentials(ctx context.Context, email, password string) {
	btn := a.cfg.Elements.LoginBtn
	a.page.SetBusy(btn, true)

	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		a.page.SetBusy(btn, false)

		if IsTransportError(err) {
			a.logger.Error("Login error: %s", err)
			a.ShowAlert(MsgConnectFailed, SeverityError)
			return
		}

		a.logger.Info("Login rejected: %s", err)
		a.ShowAlert(alertMessage(err, MsgInvalidCredentials), SeverityError)
		return
	}

	session := Session{Token: res.Token}
	if res.User != nil {
		session.User = *res.User
		err = a.sessions.Save(session)
	} else {
		err = a.sessions.SaveTokenOnly(res.Token)
	}

	if err != nil {
		a.logger.Error("Login session persist error: %s", err)
		a.page.SetBusy(btn, false)
		a.ShowAlert(MsgConnectFailed, SeverityError)
		return
	}

	if a.cfg.Debug {
		a.logger.Debug("logged in user: %s", print.MaybePrettyJSON(session.User))
	}

	a.ShowAlert(MsgLoginSuccess, SeveritySuccess)
	a.redirectAfter(session.User.Role.Dashboard(a.cfg.Routes), a.cfg.RedirectDelay)
}

// InitiateExternalSignIn sends the browser to the identity provider.
func (a *AuthClient) InitiateExternalSignIn(ctx context.Context) {
	a.ShowAlert(MsgGoogleRedirecting, SeverityInfo)

	authURL, err := a.api.GoogleAuthURL(ctx)
	if err != nil {
		if IsTransportError(err) {
			a.logger.Error("Google sign-in error: %s", err)
			a.ShowAlert(MsgGoogleConnectFail, SeverityError)
			return
		}
		a.logger.Info("Google sign-in unavailable: %s", err)
		a.ShowAlert(MsgGoogleInitFailed, SeverityError)
		return
	}

	a.navigate(authURL)
}

// CheckExistingSession redirects away from non dashboard pages when a
// session is stored. It reports whether a redirect happened.
func (a *AuthClient) CheckExistingSession(ctx context.Context) bool {
	if strings.Contains(a.page.Path(), a.cfg.Routes.DashboardMarker) {
		return false
	}

	session, err := a.sessions.Load()
	if err != nil {
		if !goerrors.IsNotFound(err) {
			a.logger.Warn("stored session unreadable: %s", err)
		}
		return false
	}

	if err := a.inspector.Inspect(ctx, session.Token); err != nil {
		a.logger.Info("discarding stored session: %s", err)
		if err := a.sessions.Clear(); err != nil {
			a.logger.Error("failed to clear session: %s", err)
		}
		return false
	}

	a.navigate(session.User.Role.Dashboard(a.cfg.Routes))
	return true
}

// CompleteOAuthCallback finishes a provider round trip. The token from the
// query string is stored before the profile is requested.
func (a *AuthClient) CompleteOAuthCallback(ctx context.Context) {
	params := a.page.QueryParams()

	token := params.Get(queryToken)
	if token != "" {
		if err := a.sessions.SaveToken(token); err != nil {
			a.logger.Error("OAuth token persist error: %s", err)
			return
		}

		user, err := a.api.Profile(ctx, token)
		if err != nil {
			a.logger.Error("OAuth profile error: %s", err)
			a.ShowAlert(MsgProfileFailed, SeverityError)
			return
		}

		if err := a.sessions.SaveUser(*user); err != nil {
			a.logger.Error("OAuth profile persist error: %s", err)
			return
		}

		a.ShowAlert(MsgGoogleSuccess, SeveritySuccess)
		a.redirectAfter(user.Role.Dashboard(a.cfg.Routes), a.cfg.RedirectDelay)
		return
	}

	if params.Get(queryNeedsRegistration) == "true" {
		a.ShowAlert(MsgCompleteSignup, SeverityInfo)
		a.redirectAfter(a.cfg.Routes.Register, a.cfg.RegistrationDelay)
	}
}

// TogglePasswordVisibility switches the password input between masked and
// plain text.
func (a *AuthClient) TogglePasswordVisibility() {
	el := a.cfg.Elements
	if a.page.InputType(el.Password) == inputTypePassword {
		a.page.SetInputType(el.Password, inputTypeText)
		a.page.SetIconRevealed(el.EyeIcon, true)
		return
	}
	a.page.SetInputType(el.Password, inputTypePassword)
	a.page.SetIconRevealed(el.EyeIcon, false)
}

// Logout removes the session and goes to the login page. A pending
// post login redirect is dropped.
func (a *AuthClient) Logout() {
	a.scheduler.Cancel(taskRedirect)
	if err := a.sessions.Clear(); err != nil {
		a.logger.Error("Logout error: %s", err)
	}
	a.navigate(a.cfg.Routes.Login)
}

// Navigated returns the target of the last navigation, if one happened.
func (a *AuthClient) Navigated() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navigated, a.navigated != ""
}

// Close stops background work owned by the token inspector, such as the
// JWKS refresh of the verify policy.
func (a *AuthClient) Close() {
	if closer, ok := a.inspector.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (a *AuthClient) redirectAfter(target string, delay time.Duration) {
	a.scheduler.Schedule(taskRedirect, delay, func() {
		a.navigate(target)
	})
}

func (a *AuthClient) navigate(target string) {
	a.mu.Lock()
	a.navigated = target
	a.mu.Unlock()

	a.page.Navigate(target)
}

func (a *AuthClient) has(elementID string) bool {
	if checker, ok := a.page.(ElementChecker); ok {
		return checker.Exists(elementID)
	}
	return true
}

func alertMessage(err error, def string) string {
	if msg := ServerMessage(err); msg != "" {
		return msg
	}
	return def
}
