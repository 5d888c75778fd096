package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/photosync/internal/shared"
	"github.com/urfave/cli/v3"
)

// configPath returns the config file location, overridable with PHOTOSYNC_CONFIG.
func configPath() string {
	if p := os.Getenv("PHOTOSYNC_CONFIG"); p != "" {
		return p
	}
	return "config.toml"
}

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath()); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath()); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	logger.SetLevel(shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "photosync",
		Usage:    "Move photos from PhotoPrism to Lychee",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrMissingArgument) || errors.Is(err, shared.ErrInvalidArgument) {
			logger.Error(err)
			os.Exit(2)
		}
		logger.Fatalf("application error: %v", err)
	}
}
