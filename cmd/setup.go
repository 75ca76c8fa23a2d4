package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/lineup/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example configuration to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)
	return r.writePlain("✓ Config written to %s\n", r.configPath)
}

// SetupDatabase initializes the database and runs migrations.
//
// A missing config file is created from the template first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if !r.configFixed {
		if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			}
		}
	}

	target := r.config.Database.Path
	if r.config.Database.Driver == shared.DriverPostgres {
		target = "postgres"
	}
	r.logger.Info("initializing database", "driver", r.config.Database.Driver, "target", target)

	if _, err := r.openDB(); err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", target)
	return r.writePlain("✓ Database ready (%s)\n", target)
}

// requireDB fails fast when the database cannot be opened.
func (r *Runner) requireDB() error {
	if _, err := r.openDB(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
	}
	return nil
}
