package db

import (
	"context"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/stellar/customer-intake-backend/cmd/utils"
	"github.com/stellar/customer-intake-backend/db/migrations"
)

const DBConfigOptionFlagName = "database-url"

type DatabaseCommand struct {
	// ExecuteMigrations replaces the real migration runner. Tests set it to avoid a live database.
	ExecuteMigrations ExecuteMigrationsFn
}

func (c *DatabaseCommand) Command(globalOptions *utils.GlobalOptionsType) *cobra.Command {
	cmd := &cobra.Command{
		Use:              "db",
		Short:            "Database related commands",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE:             utils.CallHelpCommand,
	}

	executeMigrations := c.ExecuteMigrations
	if executeMigrations == nil {
		executeMigrations = func(ctx context.Context, dir migrate.MigrationDirection, count int) error {
			return ExecuteMigrations(ctx, globalOptions.DatabaseURL, dir, count, migrations.IntakeMigrationRouter)
		}
	}

	// 'migrate up|down', tracked in the `intake_migrations` table.
	cmd.AddCommand(MigrateCmd(executeMigrations))

	return cmd
}
