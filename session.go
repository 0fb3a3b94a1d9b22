package authclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
)

// Role is the user role reported by the authentication API.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Dashboard returns the landing page for the role. Only admins get the
// admin dashboard, every other value lands on the student one.
func (r Role) Dashboard(routes Routes) string {
	if r == RoleAdmin {
		return routes.AdminDashboard
	}
	return routes.StudentDashboard
}

// User is the profile returned by the API. The known fields are decoded,
// the original JSON document is kept so it can be stored unchanged. Edits
// to the decoded fields of such a User are not reflected when it is encoded.
type User struct {
	Role          Role   `json:"role"`
	SRCode        string `json:"sr_code,omitempty"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Program       string `json:"program,omitempty"`
	YearLevel     int    `json:"year_level,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`

	raw json.RawMessage
}

type userFields struct {
	Role          Role   `json:"role"`
	SRCode        string `json:"sr_code,omitempty"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Program       string `json:"program,omitempty"`
	YearLevel     any    `json:"year_level,omitempty"`
	EmailVerified any    `json:"email_verified,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var fields userFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return err
	}

	u.Role = fields.Role
	u.SRCode = fields.SRCode
	u.Email = fields.Email
	u.FirstName = fields.FirstName
	u.LastName = fields.LastName
	u.Program = fields.Program
	u.YearLevel = looseInt(fields.YearLevel)
	u.EmailVerified = looseBool(fields.EmailVerified)
	u.raw = compact.Bytes()
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	if len(u.raw) > 0 {
		return u.raw, nil
	}
	fields := userFields{
		Role:      u.Role,
		SRCode:    u.SRCode,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Program:   u.Program,
	}
	if u.YearLevel != 0 {
		fields.YearLevel = u.YearLevel
	}
	if u.EmailVerified {
		fields.EmailVerified = true
	}
	return json.Marshal(fields)
}

// year_level and email_verified come as numbers, strings or booleans
// depending on the backend version.
func looseInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

func looseBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		ok, _ := strconv.ParseBool(b)
		return ok
	default:
		return false
	}
}

// Field returns a profile attribute by its JSON name, including the ones
// User does not model.
func (u User) Field(name string) (any, bool) {
	data, err := u.MarshalJSON()
	if err != nil {
		return nil, false
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	v, ok := fields[name]
	return v, ok
}

// ID returns the user_id attribute as a string, whatever its JSON type.
func (u User) ID() string {
	v, ok := u.Field("user_id")
	if !ok || v == nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is the client held credential plus the cached profile.
type Session struct {
	Token string
	User  User
}

// SessionStore lays a session out over a Storage.
type SessionStore struct {
	storage Storage
	keys    StorageKeys
}

func NewSessionStore(storage Storage, keys StorageKeys) *SessionStore {
	if keys.Token == "" {
		keys.Token = "token"
	}
	if keys.User == "" {
		keys.User = "user"
	}
	return &SessionStore{storage: storage, keys: keys}
}

// Load returns the stored session. Both keys must be present, otherwise
// ErrNoSession is returned.
func (s *SessionStore) Load() (*Session, error) {
	token, ok := s.storage.Get(s.keys.Token)
	if !ok || token == "" {
		return nil, ErrNoSession
	}

	rawUser, ok := s.storage.Get(s.keys.User)
	if !ok || rawUser == "" {
		return nil, ErrNoSession
	}

	var user User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "stored user is not valid JSON").
			WithTextCode(TextCodeNoSession).
			WithCode(goerrors.CodeBadRequest)
	}

	return &Session{Token: token, User: user}, nil
}

// Token returns the stored token, if any.
func (s *SessionStore) Token() (string, bool) {
	token, ok := s.storage.Get(s.keys.Token)
	return token, ok && token != ""
}

func (s *SessionStore) SaveToken(token string) error {
	if err := s.storage.Set(s.keys.Token, token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store token")
	}
	return nil
}

func (s *SessionStore) SaveUser(user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode user")
	}
	if err := s.storage.Set(s.keys.User, string(data)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store user")
	}
	return nil
}

// SaveTokenOnly stores token and removes any stored user, for logins that
// answered without a user.
func (s *SessionStore) SaveTokenOnly(token string) error {
	if err := s.SaveToken(token); err != nil {
		return err
	}
	if err := s.storage.Remove(s.keys.User); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove stored user")
	}
	return nil
}

// Save writes the token first, then the user.
func (s *SessionStore) Save(session Session) error {
	if err := s.SaveToken(session.Token); err != nil {
		return err
	}
	return s.SaveUser(session.User)
}

// Clear removes both keys. Removing absent keys is not an error.
func (s *SessionStore) Clear() error {
	var errs []error
	if err := s.storage.Remove(s.keys.Token); err != nil {
		errs = append(errs, err)
	}
	if err := s.storage.Remove(s.keys.User); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return goerrors.Wrap(errors.Join(errs...), goerrors.CategoryInternal, "failed to clear session")
	}
	return nil
}
