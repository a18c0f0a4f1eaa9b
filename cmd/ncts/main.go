package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/appversion"
)

// exitError carries the process exit code a failure should produce:
// 1 for partial completion (per-file errors), 2 for a fatal abort, 3
// for a configuration error. An error with no exitError wrapped
// defaults to 2.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.err)
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ncts",
		Short:        "Synchronize Nextcloud system tags with a local extended attribute",
		Version:      appversion.Detailed(),
		SilenceUsage: true,
	}
	cmd.AddCommand(newSyncCmd(), newVersionCmd())
	return cmd
}
