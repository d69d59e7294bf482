package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/customer-intake-backend/internal/monitor"
)

// SQLExecuterWithMetrics wraps a SQLExecuter and reports the duration of every query to the monitor service.
type SQLExecuterWithMetrics struct {
	SQLExecuter
	monitorServiceInterface monitor.MonitorServiceInterface
}

func NewSQLExecuterWithMetrics(sqlExec SQLExecuter, monitorServiceInterface monitor.MonitorServiceInterface) (*SQLExecuterWithMetrics, error) {
	if sqlExec == nil {
		return nil, fmt.Errorf("sqlExec cannot be nil")
	}
	if monitorServiceInterface == nil {
		return nil, fmt.Errorf("monitorServiceInterface cannot be nil")
	}

	return &SQLExecuterWithMetrics{
		SQLExecuter:             sqlExec,
		monitorServiceInterface: monitorServiceInterface,
	}, nil
}

// getQueryType returns the leading SQL keyword of query, or UNDEFINED.
func getQueryType(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "UNDEFINED"
	}

	switch keyword := strings.ToUpper(fields[0]); keyword {
	case "SELECT", "INSERT", "UPDATE", "DELETE", "WITH":
		return keyword
	default:
		return "UNDEFINED"
	}
}

func (sqlExec *SQLExecuterWithMetrics) monitorDBQueryDuration(duration time.Duration, query string, err error) {
	tag := monitor.SuccessfulQueryDurationTag
	if err != nil {
		tag = monitor.FailureQueryDurationTag
	}

	labels := monitor.DBQueryLabels{QueryType: getQueryType(query)}
	if monitorErr := sqlExec.monitorServiceInterface.MonitorDBQueryDuration(duration, tag, labels); monitorErr != nil {
		log.Errorf("monitoring db query duration: %s", monitorErr)
	}
}

func (sqlExec *SQLExecuterWithMetrics) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	then := time.Now()
	err := sqlExec.SQLExecuter.GetContext(ctx, dest, query, args...)
	sqlExec.monitorDBQueryDuration(time.Since(then), query, err)
	return err //nolint:wrapcheck
}

func (sqlExec *SQLExecuterWithMetrics) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	then := time.Now()
	err := sqlExec.SQLExecuter.SelectContext(ctx, dest, query, args...)
	sqlExec.monitorDBQueryDuration(time.Since(then), query, err)
	return err //nolint:wrapcheck
}

func (sqlExec *SQLExecuterWithMetrics) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	then := time.Now()
	result, err := sqlExec.SQLExecuter.ExecContext(ctx, query, args...)
	sqlExec.monitorDBQueryDuration(time.Since(then), query, err)
	return result, err //nolint:wrapcheck
}

func (sqlExec *SQLExecuterWithMetrics) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	then := time.Now()
	rows, err := sqlExec.SQLExecuter.QueryContext(ctx, query, args...)
	sqlExec.monitorDBQueryDuration(time.Since(then), query, err)
	return rows, err //nolint:wrapcheck
}

func (sqlExec *SQLExecuterWithMetrics) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	then := time.Now()
	rows, err := sqlExec.SQLExecuter.QueryxContext(ctx, query, args...)
	sqlExec.monitorDBQueryDuration(time.Since(then), query, err)
	return rows, err //nolint:wrapcheck
}

func (sqlExec *SQLExecuterWithMetrics) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	then := time.Now()
	row := sqlExec.SQLExecuter.QueryRowxContext(ctx, query, args...)
	sqlExec.monitorDBQueryDuration(time.Since(then), query, row.Err())
	return row
}

// make sure *SQLExecuterWithMetrics implements SQLExecuter:
var _ SQLExecuter = (*SQLExecuterWithMetrics)(nil)
