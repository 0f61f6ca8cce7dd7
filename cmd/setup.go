package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/store"
)

// Setup writes config.toml from the template when missing, creates the library directory
// and initialises the configured library file unless it already exists.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return err
		}
		r.config = config
		if cmd.String("dir") != "" {
			r.config.Database.Path = cmd.String("dir")
		}
		r.store = store.New(r.config.Database, r.logger)
		r.wire()
		r.writePlain("✓ Config written to %s\n", r.configPath)
	}

	dir := r.store.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create library directory: %w", err)
	}

	file := r.config.Database.File
	if r.file != "" {
		file = r.file
	}
	info, err := r.store.Init(ctx, file)
	switch {
	case errors.Is(err, shared.ErrAlreadyExists):
		r.logger.Info("library already exists", "file", file)
		r.writePlain("✓ Library %s already exists in %s\n", file, dir)
		return nil
	case err != nil:
		return err
	}

	r.logger.Infof("setup complete for library: %v", file)
	r.writePlain("✓ Library %s created in %s (uuid %s)\n", file, dir, info.UUID)
	return nil
}
