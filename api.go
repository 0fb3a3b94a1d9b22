package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

const (
	loginPath       = "/auth/login"
	googleAuthPath  = "/auth/google"
	profilePath     = "/users/profile"
	requestIDHeader = "X-Request-ID"
)

// RemoteAPI is the authentication service the controller talks to.
type RemoteAPI interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	Profile(ctx context.Context, token string) (*User, error)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Validate will run validation rules
func (r LoginResponse) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

type googleAuthResponse struct {
	AuthURL string `json:"auth_url"`
	Error   string `json:"error,omitempty"`
}

type profileResponse struct {
	User  *User  `json:"user"`
	Error string `json:"error,omitempty"`
}

var _ RemoteAPI = (*APIClient)(nil)

// APIClient is the HTTP implementation of RemoteAPI.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     Logger
	debug      bool
}

// APIClientOption configures an APIClient.
type APIClientOption func(*APIClient)

func WithHTTPClient(client *http.Client) APIClientOption {
	return func(c *APIClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithRequestTimeout(d time.Duration) APIClientOption {
	return func(c *APIClient) {
		c.timeout = d
	}
}

func WithAPILogger(logger Logger) APIClientOption {
	return func(c *APIClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithAPIDebug(debug bool) APIClientOption {
	return func(c *APIClient) {
		c.debug = debug
	}
}

// NewAPIClient creates a client for the API rooted at baseURL.
func NewAPIClient(baseURL string, opts ...APIClientOption) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login posts the credentials. A rejected login, and a success status
// without a token, are credential errors carrying the server message.
func (c *APIClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode login request")
	}

	status, data, err := c.do(ctx, http.MethodPost, loginPath, bytes.NewReader(body), nil)
	if err != nil {
		return nil, err
	}

	res := &LoginResponse{}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, withCause(ErrTransport, err, map[string]any{
			"operation": "login",
			"status":    status,
		})
	}

	c.dump("login response", res)

	if !isSuccess(status) {
		return nil, withCause(withMessage(ErrInvalidCredentials, res.Error), nil, map[string]any{
			"status":         status,
			"server_message": res.Error,
		})
	}

	if err := res.Validate(); err != nil {
		return nil, withCause(ErrMissingToken, err, map[string]any{
			"status":         status,
			"server_message": res.Error,
		})
	}

	return res, nil
}

// GoogleAuthURL asks the API for the external identity provider redirect.
func (c *APIClient) GoogleAuthURL(ctx context.Context) (string, error) {
	status, data, err := c.do(ctx, http.MethodGet, googleAuthPath, nil, nil)
	if err != nil {
		return "", err
	}

	res := googleAuthResponse{}
	if err := json.Unmarshal(data, &res); err != nil {
		return "", withCause(ErrTransport, err, map[string]any{
			"operation": "google_auth",
			"status":    status,
		})
	}

	if res.AuthURL == "" {
		return "", withCause(ErrMissingAuthURL, nil, map[string]any{
			"status":         status,
			"server_message": res.Error,
		})
	}

	return res.AuthURL, nil
}

// Profile fetches the profile of the token owner.
func (c *APIClient) Profile(ctx context.Context, token string) (*User, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}

	status, data, err := c.do(ctx, http.MethodGet, profilePath, nil, headers)
	if err != nil {
		return nil, err
	}

	res := profileResponse{}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, withCause(ErrTransport, err, map[string]any{
			"operation": "profile",
			"status":    status,
		})
	}

	c.dump("profile response", res)

	if !isSuccess(status) || res.User == nil {
		return nil, withCause(ErrProfileUnavailable, nil, map[string]any{
			"status":         status,
			"server_message": res.Error,
		})
	}

	return res.User, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, withCause(ErrTransport, err, map[string]any{
			"method": method,
			"path":   path,
		})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, withCause(ErrTransport, err, map[string]any{
			"method": method,
			"path":   path,
		})
	}

	return resp.StatusCode, data, nil
}

func (c *APIClient) dump(label string, v any) {
	if !c.debug {
		return
	}
	c.logger.Debug("%s: %s", label, print.MaybePrettyJSON(v))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// ServerMessage returns the message the API attached to a failed call.
func ServerMessage(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Metadata == nil {
		return ""
	}
	msg, _ := richErr.Metadata["server_message"].(string)
	return msg
}
