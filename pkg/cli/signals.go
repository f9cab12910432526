package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler derives a context from parent that is cancelled on
// SIGINT or SIGTERM. The returned stop function releases the signal
// registration; a second signal after cancellation kills the process with
// the default handler, so a hung shutdown can still be interrupted.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
