package db

import (
	"fmt"

	"github.com/stellar/customer-intake-backend/internal/monitor"
)

// DBTransactionWithMetrics is a DBTransaction whose queries are reported to the monitor service.
type DBTransactionWithMetrics struct {
	dbTransaction DBTransaction
	SQLExecuterWithMetrics
}

func NewDBTransactionWithMetrics(dbTransaction DBTransaction, monitorServiceInterface monitor.MonitorServiceInterface) (*DBTransactionWithMetrics, error) {
	sqlExec, err := NewSQLExecuterWithMetrics(dbTransaction, monitorServiceInterface)
	if err != nil {
		return nil, fmt.Errorf("error creating SQLExecuterWithMetrics: %w", err)
	}

	return &DBTransactionWithMetrics{
		dbTransaction:          dbTransaction,
		SQLExecuterWithMetrics: *sqlExec,
	}, nil
}

func (dbTx *DBTransactionWithMetrics) Commit() error {
	return dbTx.dbTransaction.Commit() //nolint:wrapcheck
}

func (dbTx *DBTransactionWithMetrics) Rollback() error {
	return dbTx.dbTransaction.Rollback() //nolint:wrapcheck
}

// make sure *DBTransactionWithMetrics implements DBTransaction:
var _ DBTransaction = (*DBTransactionWithMetrics)(nil)
