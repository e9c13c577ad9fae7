package main

import (
	"context"
	"errors"
	"os"

	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env file is fine; env vars may come from the container.
	_ = godotenv.Load()

	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	configPath := "config.toml"
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("could not parse config file, using defaults", "path", configPath, "err", err)
		}
	}
	config.ApplyEnv()

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "navidrofm",
		Usage:    "Sync recommendation feeds into Navidrome playlists",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			logger.Warn("another sync is already running, exiting")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
