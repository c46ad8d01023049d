package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/skyplay/internal/repositories"
	"github.com/desertthunder/skyplay/internal/services"
	"github.com/desertthunder/skyplay/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}
	config.ApplyEnv(".env")
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	opts := RunnerOpts{
		Config:     config,
		HTTPClient: &http.Client{Timeout: config.API.Timeout()},
		Logger:     logger,
	}

	if db, err := shared.OpenDatabase(config); err != nil {
		logger.Warn("database unavailable, sessions will not persist", "error", err)
	} else {
		defer db.Close()
		opts.Credentials = repositories.NewSessionRepository(db)
		opts.Cache = repositories.NewTrackCache(repositories.NewTrackRepository(db))
	}

	opts.API = services.NewAPIService(config.API.BaseURL, opts.HTTPClient)
	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     shared.AppName,
		Usage:    "Browse, filter and play the catalog from your terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
