package migrations

import (
	"net/http"

	intakemigrations "github.com/stellar/customer-intake-backend/db/migrations/intake-migrations"
)

type MigrationRouter struct {
	TableName string
	FS        http.FileSystem
}

var IntakeMigrationRouter = MigrationRouter{TableName: "intake_migrations", FS: http.FS(intakemigrations.FS)}
