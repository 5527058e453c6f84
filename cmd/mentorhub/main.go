package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mentorhub/internal/app"
	"mentorhub/pkg/config"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	flags := config.ParseConfigFlags()

	eff, err := config.LoadEffective(flags)
	if err != nil {
		logger.Init("info")
		shutdown.Abort("failed to load config", err, flags.DB)
	}
	logger.Init(eff.Config.Logging.Level)

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("failed to initialize server", err, eff.DBPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server terminated", err, eff.DBPath)
	}
	logger.Info("server_stopped")
}
