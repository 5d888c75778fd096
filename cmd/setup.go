package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/photosync/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlain("Fill in [photoprism] and [lychee], then run 'photosync connect'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
		config = shared.DefaultConfig()
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer closeDB(r.logger, db)

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupImport copies credentials from a legacy JSON settings file into the TOML config.
//
// Values missing from the JSON file keep the current configuration.
func (r *Runner) SetupImport(ctx context.Context, cmd *cli.Command) error {
	jsonPath := cmd.String("json")
	configPath := cmd.String("config")

	legacy, err := shared.LoadLegacyConfig(jsonPath)
	if err != nil {
		return err
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
	}

	legacy.Apply(config)
	if err := shared.SaveConfig(configPath, config); err != nil {
		return err
	}

	r.logger.Info("legacy settings imported", "from", jsonPath, "to", configPath)
	r.writePlain("✓ Imported %s into %s\n", jsonPath, configPath)
	r.writePlain("PhotoPrism: %s (%s)\n", config.PhotoPrism.URL, config.PhotoPrism.Username)
	r.writePlain("Lychee: %s (%s)\n", config.Lychee.URL, config.Lychee.Username)
	return nil
}
