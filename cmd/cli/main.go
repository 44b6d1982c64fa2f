package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/whatbmphotos/internal/buildinfo"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/cli"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/config"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		_ = logging.Sync(logger)
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

	// stderr may refuse fsync; the entries are already written.
	_ = logging.Sync(logger)
}
