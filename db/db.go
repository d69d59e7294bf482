package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/customer-intake-backend/internal/monitor"
)

const (
	DefaultConnMaxIdleTimeSeconds = 10
	DefaultConnMaxLifetimeSeconds = 300
)

type DBPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

var DefaultDBPoolConfig = DBPoolConfig{
	MaxOpenConns:    20,
	MaxIdleConns:    2,
	ConnMaxIdleTime: DefaultConnMaxIdleTimeSeconds * time.Second,
	ConnMaxLifetime: DefaultConnMaxLifetimeSeconds * time.Second,
}

// SQLExecuter is the query surface shared by *sqlx.DB and *sqlx.Tx.
type SQLExecuter interface {
	DriverName() string
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	sqlx.PreparerContext
	sqlx.QueryerContext
	Rebind(query string) string
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ SQLExecuter = (*sqlx.DB)(nil)
	_ SQLExecuter = (*sqlx.Tx)(nil)
)

type DBTransaction interface {
	SQLExecuter
	Rollback() error
	Commit() error
}

var _ DBTransaction = (*sqlx.Tx)(nil)

type DBConnectionPool interface {
	SQLExecuter
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (DBTransaction, error)
	Close() error
	Ping(ctx context.Context) error
	// SqlDB exposes the underlying pool to tools that need a *sql.DB, such as the migrator.
	SqlDB(ctx context.Context) (*sql.DB, error)
}

type DBConnectionPoolImplementation struct {
	*sqlx.DB
}

func NewDBConnectionPool(sqlxDB *sqlx.DB) *DBConnectionPoolImplementation {
	return &DBConnectionPoolImplementation{DB: sqlxDB}
}

var _ DBConnectionPool = (*DBConnectionPoolImplementation)(nil)

func (p *DBConnectionPoolImplementation) BeginTxx(ctx context.Context, opts *sql.TxOptions) (DBTransaction, error) {
	return p.DB.BeginTxx(ctx, opts) //nolint:wrapcheck
}

func (p *DBConnectionPoolImplementation) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx) //nolint:wrapcheck
}

func (p *DBConnectionPoolImplementation) SqlDB(context.Context) (*sql.DB, error) {
	if p.DB == nil || p.DB.DB == nil {
		return nil, errors.New("sql.DB is not initialized")
	}
	return p.DB.DB, nil
}

// OpenDBConnectionPoolWithConfig opens a Postgres pool tuned with cfg and checks that the database answers.
func OpenDBConnectionPoolWithConfig(dataSourceName string, cfg DBPoolConfig) (DBConnectionPool, error) {
	sqlxDB, err := sqlx.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error creating app DB connection pool: %w", err)
	}

	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err = sqlxDB.Ping(); err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("error pinging app DB connection pool: %w", err)
	}

	return NewDBConnectionPool(sqlxDB), nil
}

// OpenDBConnectionPoolWithMetrics opens a pool whose queries report their durations to monitorService.
func OpenDBConnectionPoolWithMetrics(dataSourceName string, cfg DBPoolConfig, monitorService monitor.MonitorServiceInterface) (DBConnectionPool, error) {
	dbConnectionPool, err := OpenDBConnectionPoolWithConfig(dataSourceName, cfg)
	if err != nil {
		return nil, fmt.Errorf("error opening a new db connection pool: %w", err)
	}

	return NewDBConnectionPoolWithMetrics(dbConnectionPool, monitorService)
}

// RunInTransactionWithResult runs fn inside a transaction. The transaction is committed when fn succeeds and rolled
// back otherwise. Errors returned by fn are wrapped in a TransactionExecutionError.
func RunInTransactionWithResult[T any](ctx context.Context, dbConnectionPool DBConnectionPool, opts *sql.TxOptions, fn func(dbTx DBTransaction) (T, error)) (T, error) {
	var zero T

	dbTx, err := dbConnectionPool.BeginTxx(ctx, opts)
	if err != nil {
		return zero, fmt.Errorf("creating db transaction: %w", err)
	}

	result, err := fn(dbTx)
	if err != nil {
		log.Ctx(ctx).Debugf("rolling back transaction: %v", err)
		if rbErr := dbTx.Rollback(); rbErr != nil {
			log.Ctx(ctx).Errorf("error in database transaction rollback: %v", rbErr)
		}
		return zero, &TransactionExecutionError{err: err}
	}

	if err = dbTx.Commit(); err != nil {
		return zero, fmt.Errorf("committing db transaction: %w", err)
	}

	return result, nil
}

// TransactionExecutionError marks errors raised by the function run inside a transaction, as opposed to errors
// opening or committing the transaction itself.
type TransactionExecutionError struct {
	err error
}

func (t *TransactionExecutionError) Error() string {
	return "transaction execution error: " + t.err.Error()
}

func (t *TransactionExecutionError) Unwrap() error {
	return t.err
}

func IsTransactionExecutionError(err error) bool {
	var txErr *TransactionExecutionError
	return errors.As(err, &txErr)
}
