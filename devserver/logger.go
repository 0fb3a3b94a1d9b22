package devserver

import (
	"fmt"

	authclient "github.com/goliatone/go-auth-client"
)

var _ authclient.Logger = defLogger{}

type defLogger struct{}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHDEV "+format+"\n", args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHDEV "+format+"\n", args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHDEV "+format+"\n", args...)
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHDEV "+format+"\n", args...)
}
