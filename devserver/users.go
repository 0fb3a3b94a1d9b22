package devserver

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user directory of the dev server.
type Users interface {
	repository.Repository[*User]

	Migrate(ctx context.Context) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository creates a Users backed by db. Records are looked up
// by email.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{Repository: repo, db: db}
}

func (u *users) Migrate(ctx context.Context) error {
	_, err := u.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create users table")
	}
	return nil
}

func (u *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return u.GetByIdentifier(ctx, normalizeEmail(email))
}

// Register creates the user. The id is derived from the email so seeded
// accounts keep their ids across restarts.
func (u *users) Register(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = RoleStudent
	}

	if user.ID == uuid.Nil {
		id, err := hashid.NewUUID(user.Email)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive user id")
		}
		user.ID = id
	}

	if _, err := u.FindByEmail(ctx, user.Email); err == nil {
		return nil, goerrors.New("Email already registered", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict).
			WithMetadata(map[string]any{"email": user.Email})
	} else if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return u.Create(ctx, user)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
