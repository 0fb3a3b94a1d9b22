//go:build js && wasm

package browser

import (
	"syscall/js"
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a DOM. Run them in a browser, for example with
// wasmbrowsertest as the go_js_wasm_exec wrapper. Under node they skip.

func requireDOM(t *testing.T) js.Value {
	t.Helper()
	document := js.Global().Get("document")
	if document.IsUndefined() || document.IsNull() {
		t.Skip("no DOM available")
	}
	return document
}

func mount(t *testing.T, markup string) {
	t.Helper()
	document := requireDOM(t)

	root := document.Call("createElement", "div")
	root.Set("innerHTML", markup)
	document.Get("body").Call("appendChild", root)
	t.Cleanup(func() { root.Call("remove") })
}

func TestSetBusyRestoresLabel(t *testing.T) {
	mount(t, `<button id="loginBtn"><b>Sign in</b></button>`)
	page := NewPage(view.MustNew(), nil)
	btn := js.Global().Get("document").Call("getElementById", "loginBtn")

	page.SetBusy("loginBtn", true)
	assert.True(t, btn.Get("disabled").Bool())
	assert.Contains(t, btn.Get("innerHTML").String(), "Signing in...")

	// a second busy call keeps the saved label
	page.SetBusy("loginBtn", true)

	page.SetBusy("loginBtn", false)
	assert.False(t, btn.Get("disabled").Bool())
	assert.Equal(t, "<b>Sign in</b>", btn.Get("innerHTML").String())

	page.SetBusy("missing", true)
}

func TestSetIconRevealedSwapsClasses(t *testing.T) {
	mount(t, `<i id="eyeIcon" class="fas fa-eye"></i><input id="password" type="password">`)
	page := NewPage(view.MustNew(), nil)
	classes := js.Global().Get("document").Call("getElementById", "eyeIcon").Get("classList")

	page.SetIconRevealed("eyeIcon", true)
	assert.True(t, classes.Call("contains", "fa-eye-slash").Bool())
	assert.False(t, classes.Call("contains", "fa-eye").Bool())
	assert.True(t, classes.Call("contains", "fas").Bool())

	page.SetIconRevealed("eyeIcon", false)
	assert.True(t, classes.Call("contains", "fa-eye").Bool())
	assert.False(t, classes.Call("contains", "fa-eye-slash").Bool())

	assert.Equal(t, "password", page.InputType("password"))
	page.SetInputType("password", "text")
	assert.Equal(t, "text", page.InputType("password"))
}

func TestRenderAlertEscapesMessage(t *testing.T) {
	mount(t, `<div id="alertContainer"></div>`)
	page := NewPage(view.MustNew(), nil)
	container := js.Global().Get("document").Call("getElementById", "alertContainer")

	page.RenderAlert("alertContainer", authclient.Alert{Message: `<img src=x>`, Severity: authclient.SeverityError})
	assert.Equal(t, 0, container.Call("getElementsByTagName", "img").Length())
	assert.Contains(t, container.Get("textContent").String(), "<img src=x>")
	assert.True(t, container.Call("querySelector", ".alert-error").Truthy())

	page.ClearAlert("alertContainer")
	assert.Empty(t, container.Get("innerHTML").String())
}

func TestExists(t *testing.T) {
	mount(t, `<form id="loginForm"></form>`)
	page := NewPage(view.MustNew(), nil)

	assert.True(t, page.Exists("loginForm"))
	assert.False(t, page.Exists("googleSignInBtn"))
	assert.Empty(t, page.Value("missing"))
}

func TestLocalStorageRoundTrip(t *testing.T) {
	requireDOM(t)
	if js.Global().Get("localStorage").IsUndefined() {
		t.Skip("no localStorage available")
	}

	store := NewLocalStorage()
	t.Cleanup(func() { _ = store.Remove("authclient-test") })

	_, ok := store.Get("authclient-test")
	assert.False(t, ok)

	require.NoError(t, store.Set("authclient-test", `{"role":"admin"}`))
	value, ok := store.Get("authclient-test")
	assert.True(t, ok)
	assert.Equal(t, `{"role":"admin"}`, value)

	require.NoError(t, store.Remove("authclient-test"))
	_, ok = store.Get("authclient-test")
	assert.False(t, ok)
}

func TestLocalStorageRejectedWrite(t *testing.T) {
	throwing := js.Global().Get("Object").New()
	throwing.Set("setItem", js.Global().Get("Function").New("k", "v", `throw new Error("QuotaExceededError")`))
	store := &LocalStorage{store: throwing}

	err := store.Set("token", "abc")
	require.Error(t, err)
	assert.True(t, authclient.IsStorageError(err))
	assert.Contains(t, err.Error(), "QuotaExceededError")
}
