package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lefinal/meh/mehlog"
	"github.com/lefinal/runarchive/app"
	"github.com/lefinal/runarchive/logging"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunCLI(ctx, nil, os.Args)
	cancel()
	if err != nil {
		logger := logging.NewConsoleLogger(zap.InfoLevel)
		mehlog.Log(logger, err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
