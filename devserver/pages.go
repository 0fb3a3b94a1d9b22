package devserver

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

//go:embed views/*.html
var viewsFS embed.FS

// DefaultWasmPath is where the login page loads the browser client from.
const DefaultWasmPath = "/authwasm.wasm"

func newViews() (*django.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open dev server views")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load dev server views")
	}
	return engine, nil
}

// LoginPage serves the login page shell. Element ids come from the client
// defaults so the wasm build finds its form.
func (s *Server) LoginPage(ctx router.Context) error {
	cfg := authclient.DefaultConfig(s.cfg.FrontendURL)
	return ctx.Render("login", router.ViewContext{
		"title":    "Sign in",
		"elements": cfg.Elements,
		"google":   s.google.enabled(),
		"wasm":     s.cfg.WasmPath,
	})
}
