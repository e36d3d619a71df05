package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadSetupConfig loads the config at path, creating it from the embedded template when missing.
func (r *Runner) loadSetupConfig(path string) *shared.Config {
	var config *shared.Config
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
		return config
	}

	r.logger.Info("config file not found, creating from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		r.logger.Warn("failed to create config file, using defaults", "error", err)
		return shared.DefaultConfig()
	}

	r.logger.Info("config file created", "path", path)
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load created config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

func (r *Runner) setupDatabase(cmd *cli.Command) (*sql.DB, *shared.Config, error) {
	config := r.loadSetupConfig(cmd.String("config"))

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	return db, config, nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	db, config, err := r.setupDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations", "path", config.Database.Path)
	applied, err := shared.ApplyMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s (%d migration(s) applied)\n", config.Database.Path, applied)
	return nil
}

// SetupMigrations lists the migrations recorded in the database.
func (r *Runner) SetupMigrations(ctx context.Context, cmd *cli.Command) error {
	db, _, err := r.setupDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.ListAppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(applied, cmd.Bool("pretty"))
	}

	if len(applied) == 0 {
		return r.writePlain("No migrations applied. Run 'discwatch setup database' first.\n")
	}
	for _, m := range applied {
		r.writePlain("%04d  applied %s\n", m.Version, m.AppliedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, config, err := r.setupDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Warn("rolling back latest migration", "path", config.Database.Path)
	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return r.writePlain("✓ Rolled back latest migration\n")
}
