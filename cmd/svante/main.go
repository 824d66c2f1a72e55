// Command svante records, combines, and reports measurement statistics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/svante/internal/cli"
	"github.com/roach88/svante/internal/stats"
)

func main() {
	// One session per process: every store opened by this invocation
	// shares its run number.
	session := stats.CaptureSession()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommandWithOptions(&cli.RootOptions{Session: &session})
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
