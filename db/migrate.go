package db

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/stellar/customer-intake-backend/db/migrations"
	"github.com/stellar/customer-intake-backend/internal/utils"
)

// Migrate applies up to count migrations from router in direction dir. A count of 0 applies all of them.
func Migrate(dbURL string, dir migrate.MigrationDirection, count int, router migrations.MigrationRouter) (int, error) {
	dbConnectionPool, err := OpenDBConnectionPoolWithConfig(dbURL, DefaultDBPoolConfig)
	if err != nil {
		return 0, fmt.Errorf("database URL '%s': %w", utils.TruncateString(dbURL, len(dbURL)/4), err)
	}
	defer dbConnectionPool.Close()

	ms := migrate.MigrationSet{
		TableName: router.TableName,
	}

	m := migrate.HttpFileSystemMigrationSource{FileSystem: router.FS}
	ctx := context.Background()
	db, err := dbConnectionPool.SqlDB(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching sql.DB: %w", err)
	}
	return ms.ExecMax(db, dbConnectionPool.DriverName(), m, dir, count)
}
