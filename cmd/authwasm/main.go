//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/browser"
	"github.com/goliatone/go-auth-client/view"
)

func main() {
	page := browser.NewPage(view.MustNew(), nil)

	client, err := authclient.New(authclient.DefaultConfig(browser.Origin()), page, browser.NewLocalStorage())
	if err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return
	}

	js.Global().Set("logout", js.FuncOf(func(js.Value, []js.Value) any {
		client.Logout()
		return nil
	}))

	browser.OnReady(func() {
		client.Init(context.Background())
	})

	select {}
}
