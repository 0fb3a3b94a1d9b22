package devserver

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// SeedUser describes an account created at startup.
type SeedUser struct {
	Email         string
	Password      string
	Role          string
	FirstName     string
	LastName      string
	SRCode        string
	Program       string
	YearLevel     int
	EmailVerified bool
}

// DefaultSeeds are the accounts of a fresh dev server.
func DefaultSeeds() []SeedUser {
	return []SeedUser{
		{
			Email:     "admin@example.com",
			Password:  "admin-password",
			Role:      RoleAdmin,
			FirstName: "Ada",
			LastName:  "Admin",
		},
		{
			Email:         "student@example.com",
			Password:      "student-password",
			Role:          RoleStudent,
			FirstName:     "Sam",
			LastName:      "Student",
			SRCode:        "21-12345",
			Program:       "BSCS",
			YearLevel:     3,
			EmailVerified: true,
		},
		{
			Email:     "pending@example.com",
			Password:  "pending-password",
			Role:      RoleStudent,
			FirstName: "Pat",
			LastName:  "Pending",
			SRCode:    "22-54321",
			Program:   "BSIT",
			YearLevel: 1,
		},
	}
}

// Seed registers the given users. Accounts that already exist are left
// untouched. Seeds without a password can only sign in through Google.
func (s *Server) Seed(ctx context.Context, seeds ...SeedUser) error {
	for _, seed := range seeds {
		if _, err := s.users.FindByEmail(ctx, seed.Email); err == nil {
			continue
		} else if !repository.IsRecordNotFound(err) {
			return err
		}

		user := &User{
			Role:          seed.Role,
			Email:         seed.Email,
			FirstName:     seed.FirstName,
			LastName:      seed.LastName,
			SRCode:        seed.SRCode,
			Program:       seed.Program,
			YearLevel:     seed.YearLevel,
			EmailVerified: seed.EmailVerified,
		}

		if seed.Password != "" {
			hash, err := s.passwords.Hash(seed.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}

		if _, err := s.users.Register(ctx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed user").
				WithMetadata(map[string]any{"email": seed.Email})
		}
		s.logger.Debug("seeded %s (%s)", user.Email, user.Role)
	}
	return nil
}
