// Package dbtest opens connection pools backed by go-sqlmock for package tests.
package dbtest

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/stellar/customer-intake-backend/db"
)

// OpenWithMock returns a connection pool whose queries are matched against the returned sqlmock expectations. Unmet
// expectations fail the test when it ends.
func OpenWithMock(t *testing.T) (db.DBConnectionPool, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, sqlMock.ExpectationsWereMet())
		mockDB.Close()
	})

	return db.NewDBConnectionPool(sqlx.NewDb(mockDB, "postgres")), sqlMock
}
