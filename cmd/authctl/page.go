package main

import (
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
)

// terminalPage renders the login page on a terminal. Alerts and
// navigations are printed, form values are set by the command.
type terminalPage struct {
	out   io.Writer
	path  string
	query url.Values

	mu         sync.Mutex
	values     map[string]string
	inputTypes map[string]string
	alerts     []authclient.Alert
	target     string
}

var _ authclient.Page = (*terminalPage)(nil)

func newTerminalPage(out io.Writer, location string) (*terminalPage, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid page location").
			WithMetadata(map[string]any{"location": location})
	}
	return &terminalPage{
		out:        out,
		path:       u.Path,
		query:      u.Query(),
		values:     map[string]string{},
		inputTypes: map[string]string{},
	}, nil
}

func (p *terminalPage) OnSubmit(string, func()) {}
func (p *terminalPage) OnClick(string, func())  {}

func (p *terminalPage) Value(elementID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[elementID]
}

func (p *terminalPage) Path() string            { return p.path }
func (p *terminalPage) QueryParams() url.Values { return p.query }

func (p *terminalPage) Navigate(target string) {
	p.mu.Lock()
	p.target = target
	p.mu.Unlock()
	fmt.Fprintf(p.out, "-> %s\n", target)
}

func (p *terminalPage) RenderAlert(_ string, alert authclient.Alert) {
	p.mu.Lock()
	p.alerts = append(p.alerts, alert)
	p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s\n", severityLabel(alert.Severity), alert.Message)
}

func (p *terminalPage) ClearAlert(string)    {}
func (p *terminalPage) SetBusy(string, bool) {}

func (p *terminalPage) InputType(elementID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.inputTypes[elementID]; ok {
		return t
	}
	return "password"
}

func (p *terminalPage) SetInputType(elementID, inputType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputTypes[elementID] = inputType
}

func (p *terminalPage) SetIconRevealed(string, bool) {}

// failed reports whether the last alert shown was an error.
func (p *terminalPage) failed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.alerts) == 0 {
		return false
	}
	return p.alerts[len(p.alerts)-1].Severity == authclient.SeverityError
}

func (p *terminalPage) navigated() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target, p.target != ""
}

func severityLabel(s authclient.Severity) string {
	switch authclient.ParseSeverity(string(s)) {
	case authclient.SeveritySuccess:
		return "[OK]"
	case authclient.SeverityError:
		return "[ERR]"
	case authclient.SeverityWarning:
		return "[WRN]"
	default:
		return "[INF]"
	}
}

// immediateScheduler runs tasks as soon as they are scheduled. A terminal
// has nothing to wait for between the alert and the redirect.
type immediateScheduler struct{}

func (immediateScheduler) Schedule(_ string, _ time.Duration, fn func()) { fn() }
func (immediateScheduler) Cancel(string)                                 {}
