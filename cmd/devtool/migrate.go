package main

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/database"
	"github.com/osse101/MallLoyalty_Go/internal/database/schema"
)

type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

func (c *MigrateCommand) Description() string {
	return "Manage database migrations (up, down, status, create <name>)"
}

func (c *MigrateCommand) Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("subcommand required: up, down, status, create")
	}
	dir := getEnv("MIGRATIONS_DIR", schema.DefaultMigrationsDir)

	// create needs no DB connection
	if args[0] == "create" {
		if len(args) < 2 {
			return fmt.Errorf("migration name required for create")
		}
		if err := checkHostile(args[1]); err != nil {
			return err
		}
		return schema.Create(dir, args[1])
	}

	pool, err := database.NewPool(dbURL(), 2, time.Minute, 10*time.Minute)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := context.Background()
	switch args[0] {
	case "up":
		if err := schema.Migrate(ctx, pool, dir); err != nil {
			return err
		}
		version, err := schema.Version(ctx, pool)
		if err != nil {
			return err
		}
		PrintSuccess("Migrated to version %d", version)
		return nil
	case "down":
		return schema.Down(ctx, pool, dir)
	case "status":
		return schema.Status(ctx, pool, dir)
	default:
		return fmt.Errorf("unknown migrate subcommand %q", args[0])
	}
}
