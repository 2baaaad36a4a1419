package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/sessionguard/app/guard"
	"github.com/dmitrymomot/sessionguard/core/config"
	"github.com/dmitrymomot/sessionguard/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	cfg, err := guard.LoadConfig()
	if err != nil {
		logger.New(logger.WithOutput(os.Stderr)).Error("load configuration", logger.Error(err))
		return 1
	}

	log := guard.NewLogger(cfg, os.Stdout)

	app, err := guard.NewApp(ctx, cfg, guard.WithLogger(log))
	if err != nil {
		var ve *config.ValidationError
		if errors.As(err, &ve) {
			log.Error("invalid configuration", logger.Violations(ve.Violations))
		} else {
			log.Error("startup failed", logger.Error(err))
		}
		return 1
	}

	if err := app.Run(ctx); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		return 1
	}

	log.Info("server stopped")
	return 0
}
