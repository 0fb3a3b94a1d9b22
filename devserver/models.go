package devserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role values stored for users.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"user_id"`
	Role          string     `bun:"role,notnull" json:"role"`
	SRCode        string     `bun:"sr_code" json:"sr_code,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name"`
	LastName      string     `bun:"last_name,notnull" json:"last_name"`
	Program       string     `bun:"program" json:"program,omitempty"`
	YearLevel     int        `bun:"year_level" json:"year_level,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	EmailVerified bool       `bun:"email_verified" json:"email_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Profile is the public view of the user returned by the API.
func (u *User) Profile() map[string]any {
	profile := map[string]any{
		"user_id":        u.ID.String(),
		"role":           u.Role,
		"email":          u.Email,
		"first_name":     u.FirstName,
		"last_name":      u.LastName,
		"email_verified": u.EmailVerified,
	}
	if u.SRCode != "" {
		profile["sr_code"] = u.SRCode
	}
	if u.Program != "" {
		profile["program"] = u.Program
	}
	if u.YearLevel != 0 {
		profile["year_level"] = u.YearLevel
	}
	return profile
}

// CanLogin reports whether the account may sign in with a password.
// Students need a verified email, admins do not.
func (u *User) CanLogin() bool {
	return u.Role == RoleAdmin || u.EmailVerified
}
