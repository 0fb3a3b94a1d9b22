//go:build js && wasm

// Package browser binds the auth client to the DOM of the login page when
// compiled to WebAssembly.
package browser

import (
	"net/url"
	"strings"
	"sync"
	"syscall/js"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/view"
)

const (
	busyMarkup  = `<span class="loading loading-spinner"></span> Signing in...`
	eyeOpen     = "fa-eye"
	eyeSlashed  = "fa-eye-slash"
	submitEvent = "submit"
	clickEvent  = "click"
)

// Page is the DOM backed authclient.Page.
type Page struct {
	window   js.Value
	document js.Value
	renderer *view.Renderer
	logger   authclient.Logger

	mu       sync.Mutex
	idle     map[string]string
	handlers []js.Func
}

var (
	_ authclient.Page           = (*Page)(nil)
	_ authclient.ElementChecker = (*Page)(nil)
)

// NewPage binds to the global window. Alert markup comes from renderer.
func NewPage(renderer *view.Renderer, logger authclient.Logger) *Page {
	if logger == nil {
		logger = authclient.NopLogger{}
	}
	window := js.Global()
	return &Page{
		window:   window,
		document: window.Get("document"),
		renderer: renderer,
		logger:   logger,
		idle:     map[string]string{},
	}
}

// Origin returns window.location.origin.
func Origin() string {
	return js.Global().Get("location").Get("origin").String()
}

func (p *Page) element(id string) (js.Value, bool) {
	el := p.document.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return js.Value{}, false
	}
	return el, true
}

func (p *Page) Exists(elementID string) bool {
	_, ok := p.element(elementID)
	return ok
}

// OnSubmit runs fn off the event loop so it can block on fetch.
func (p *Page) OnSubmit(formID string, fn func()) {
	p.listen(formID, submitEvent, true, fn)
}

func (p *Page) OnClick(elementID string, fn func()) {
	p.listen(elementID, clickEvent, false, fn)
}

func (p *Page) listen(id, event string, preventDefault bool, fn func()) {
	el, ok := p.element(id)
	if !ok {
		return
	}

	handler := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if preventDefault && len(args) > 0 {
			args[0].Call("preventDefault")
		}
		go fn()
		return nil
	})

	p.mu.Lock()
	p.handlers = append(p.handlers, handler)
	p.mu.Unlock()

	el.Call("addEventListener", event, handler)
}

func (p *Page) Value(elementID string) string {
	el, ok := p.element(elementID)
	if !ok {
		return ""
	}
	return el.Get("value").String()
}

func (p *Page) Path() string {
	return p.window.Get("location").Get("pathname").String()
}

func (p *Page) QueryParams() url.Values {
	search := strings.TrimPrefix(p.window.Get("location").Get("search").String(), "?")
	values, err := url.ParseQuery(search)
	if err != nil {
		p.logger.Warn("malformed query string: %s", err)
	}
	return values
}

func (p *Page) Navigate(target string) {
	p.window.Get("location").Set("href", target)
}

func (p *Page) RenderAlert(containerID string, alert authclient.Alert) {
	el, ok := p.element(containerID)
	if !ok {
		return
	}

	html, err := p.renderer.Alert(alert)
	if err != nil {
		p.logger.Error("render alert: %s", err)
		el.Set("textContent", alert.Message)
		return
	}
	el.Set("innerHTML", html)
}

func (p *Page) ClearAlert(containerID string) {
	if el, ok := p.element(containerID); ok {
		el.Set("innerHTML", "")
	}
}

// SetBusy swaps the control label for a spinner and restores the original
// label afterwards.
func (p *Page) SetBusy(controlID string, busy bool) {
	el, ok := p.element(controlID)
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	el.Set("disabled", busy)
	if busy {
		if _, saved := p.idle[controlID]; !saved {
			p.idle[controlID] = el.Get("innerHTML").String()
		}
		el.Set("innerHTML", busyMarkup)
		return
	}

	if label, saved := p.idle[controlID]; saved {
		el.Set("innerHTML", label)
		delete(p.idle, controlID)
	}
}

func (p *Page) InputType(elementID string) string {
	el, ok := p.element(elementID)
	if !ok {
		return ""
	}
	return el.Get("type").String()
}

func (p *Page) SetInputType(elementID, inputType string) {
	if el, ok := p.element(elementID); ok {
		el.Set("type", inputType)
	}
}

func (p *Page) SetIconRevealed(elementID string, revealed bool) {
	el, ok := p.element(elementID)
	if !ok {
		return
	}
	classes := el.Get("classList")
	if revealed {
		classes.Call("remove", eyeOpen)
		classes.Call("add", eyeSlashed)
		return
	}
	classes.Call("remove", eyeSlashed)
	classes.Call("add", eyeOpen)
}

// Release frees the registered event handlers.
func (p *Page) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range p.handlers {
		h.Release()
	}
	p.handlers = nil
}

// OnReady runs fn once the DOM is parsed, right away when it already is.
func OnReady(fn func()) {
	document := js.Global().Get("document")
	if document.Get("readyState").String() != "loading" {
		go fn()
		return
	}

	var ready js.Func
	ready = js.FuncOf(func(js.Value, []js.Value) any {
		ready.Release()
		go fn()
		return nil
	})
	document.Call("addEventListener", "DOMContentLoaded", ready)
}
