package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/lineup/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.close()

	if err := runner.app().Run(ctx, os.Args); err != nil {
		logger.Error("application error", "error", err)
		runner.close()
		os.Exit(1)
	}
}
