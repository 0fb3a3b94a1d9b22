package view

import (
	_ "embed"
	"strings"

	"github.com/flosch/pongo2/v6"
	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
)

// The alert template is compiled with pongo2 directly. The fiber template
// engines pull fasthttp into the build, which does not compile for js/wasm.
//
//go:embed templates/alert.html
var alertSource []byte

// Renderer turns alerts into the markup placed in the alert container.
// Messages are escaped.
type Renderer struct {
	alert *pongo2.Template
}

// New compiles the embedded templates.
func New() (*Renderer, error) {
	tpl, err := pongo2.FromBytes(alertSource)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load view templates")
	}
	return &Renderer{alert: tpl}, nil
}

// MustNew is New for package level initialization.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Alert renders the alert box for a.
func (r *Renderer) Alert(a authclient.Alert) (string, error) {
	out, err := r.alert.Execute(pongo2.Context(Context(a)))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render alert").
			WithMetadata(map[string]any{"severity": a.Severity})
	}
	return strings.TrimSpace(out), nil
}

// Context returns the template binding for a.
func Context(a authclient.Alert) map[string]any {
	role := "status"
	if a.Severity == authclient.SeverityError {
		role = "alert"
	}
	return map[string]any{
		"message":  a.Message,
		"severity": string(authclient.ParseSeverity(string(a.Severity))),
		"class":    a.Class(),
		"icon":     a.Icon(),
		"role":     role,
	}
}
