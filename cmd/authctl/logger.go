package main

import (
	"fmt"
	"io"
	"strings"
)

type cliLogger struct {
	w io.Writer
}

func (l *cliLogger) Debug(format string, args ...any) { l.log("DBG", format, args...) }
func (l *cliLogger) Info(format string, args ...any)  { l.log("INF", format, args...) }
func (l *cliLogger) Warn(format string, args ...any)  { l.log("WRN", format, args...) }
func (l *cliLogger) Error(format string, args ...any) { l.log("ERR", format, args...) }

func (l *cliLogger) log(level, format string, args ...any) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(l.w, "["+level+"] AUTHCTL "+format, args...)
}
