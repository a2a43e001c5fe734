package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ContextWithSignals returns a context canceled on SIGINT or SIGTERM.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
