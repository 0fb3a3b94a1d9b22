//go:build js && wasm

package browser

import (
	"fmt"
	"syscall/js"

	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
)

// LocalStorage is authclient.Storage over window.localStorage.
type LocalStorage struct {
	store js.Value
}

var _ authclient.Storage = (*LocalStorage)(nil)

func NewLocalStorage() *LocalStorage {
	return &LocalStorage{store: js.Global().Get("localStorage")}
}

func (s *LocalStorage) Get(key string) (string, bool) {
	v := s.store.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false
	}
	return v.String(), true
}

// Set fails when the browser refuses the write, usually a full quota or
// a private window.
func (s *LocalStorage) Set(key, value string) error {
	return s.call("setItem", key, key, value)
}

func (s *LocalStorage) Remove(key string) error {
	return s.call("removeItem", key, key)
}

// call turns the exception thrown by the storage method into an error.
func (s *LocalStorage) call(method, key string, args ...any) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		cause, ok := r.(error)
		if !ok {
			cause = goerrors.New(fmt.Sprint(r), goerrors.CategoryOperation)
		}
		err = authclient.NewStorageError(cause, key).
			WithMetadata(map[string]any{"method": method})
	}()
	s.store.Call(method, args...)
	return nil
}
