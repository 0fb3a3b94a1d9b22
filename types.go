package authclient

import (
	"fmt"
	"net/url"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Storage is the key/value capability backing a session, the shape of
// the browser's localStorage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Page is the boundary between the controller and whatever renders the
// login screen.
type Page interface {
	// OnSubmit registers fn for the submit event of the form with formID.
	OnSubmit(formID string, fn func())
	// OnClick registers fn for the click event of the element with id.
	OnClick(elementID string, fn func())

	// Value returns the current value of an input element.
	Value(elementID string) string

	Path() string
	QueryParams() url.Values

	// Navigate performs a full page navigation to target.
	Navigate(target string)

	RenderAlert(containerID string, alert Alert)
	ClearAlert(containerID string)

	// SetBusy disables a control and shows a loading indicator, or
	// restores it when busy is false.
	SetBusy(controlID string, busy bool)

	InputType(elementID string) string
	SetInputType(elementID, inputType string)
	SetIconRevealed(elementID string, revealed bool)
}

// ElementChecker is implemented by pages that can tell whether an element
// is present. Pages that do not implement it are assumed to have them all.
type ElementChecker interface {
	Exists(elementID string) bool
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHCLIENT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHCLIENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHCLIENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHCLIENT "+newline(format), args...)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
