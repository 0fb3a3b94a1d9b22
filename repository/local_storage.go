package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// LocalStorageItem is the Bun model for a persisted key/value pair.
type LocalStorageItem struct {
	bun.BaseModel `bun:"table:local_storage"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

var _ authclient.Storage = (*LocalStorage)(nil)

// LocalStorage implements authclient.Storage over a SQL table so a session
// outlives the process that created it.
type LocalStorage struct {
	db      *bun.DB
	timeout time.Duration
	logger  authclient.Logger
}

// LocalStorageOption configures a LocalStorage.
type LocalStorageOption func(*LocalStorage)

// WithTimeout bounds the Storage methods, which carry no context.
func WithTimeout(d time.Duration) LocalStorageOption {
	return func(s *LocalStorage) {
		s.timeout = d
	}
}

func WithLogger(logger authclient.Logger) LocalStorageOption {
	return func(s *LocalStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewLocalStorage creates a new repository.
func NewLocalStorage(db *bun.DB, opts ...LocalStorageOption) *LocalStorage {
	s := &LocalStorage{
		db:      db,
		timeout: 5 * time.Second,
		logger:  authclient.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the backing table if needed.
func (s *LocalStorage) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*LocalStorageItem)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create local storage table")
	}
	return nil
}

// GetItem returns the value stored under key. A missing key is a not found
// error.
func (s *LocalStorage) GetItem(ctx context.Context, key string) (string, error) {
	var item LocalStorageItem
	err := s.db.NewSelect().
		Model(&item).
		Where("key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", goerrors.New("storage key not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound).
				WithMetadata(map[string]any{"key": key})
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read storage key")
	}
	return item.Value, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *LocalStorage) SetItem(ctx context.Context, key, value string) error {
	item := &LocalStorageItem{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(item).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write storage key")
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *LocalStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*LocalStorageItem)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove storage key")
	}
	return nil
}

// Items returns every stored pair.
func (s *LocalStorage) Items(ctx context.Context) (map[string]string, error) {
	var items []LocalStorageItem
	if err := s.db.NewSelect().Model(&items).Order("key ASC").Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list storage keys")
	}

	out := make(map[string]string, len(items))
	for _, item := range items {
		out[item.Key] = item.Value
	}
	return out, nil
}

func (s *LocalStorage) Get(key string) (string, bool) {
	ctx, cancel := s.context()
	defer cancel()

	value, err := s.GetItem(ctx, key)
	if err != nil {
		if !goerrors.IsNotFound(err) {
			s.logger.Error("local storage get %s: %s", key, err)
		}
		return "", false
	}
	return value, true
}

func (s *LocalStorage) Set(key, value string) error {
	ctx, cancel := s.context()
	defer cancel()
	return s.SetItem(ctx, key, value)
}

func (s *LocalStorage) Remove(key string) error {
	ctx, cancel := s.context()
	defer cancel()
	return s.RemoveItem(ctx, key)
}

func (s *LocalStorage) context() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.timeout)
}
