package utils

import (
	"go/types"
	"time"

	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/stellar/customer-intake-backend/db"
	"github.com/stellar/customer-intake-backend/internal/crashtracker"
	"github.com/stellar/customer-intake-backend/internal/session"
)

// DBPoolOptions contains tunables for the PostgreSQL connection pool.
type DBPoolOptions struct {
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxIdleTimeSeconds int
	DBConnMaxLifetimeSeconds int
}

// PoolConfig converts the options into the db package's pool config.
func (o DBPoolOptions) PoolConfig() db.DBPoolConfig {
	return db.DBPoolConfig{
		MaxOpenConns:    o.DBMaxOpenConns,
		MaxIdleConns:    o.DBMaxIdleConns,
		ConnMaxIdleTime: time.Duration(o.DBConnMaxIdleTimeSeconds) * time.Second,
		ConnMaxLifetime: time.Duration(o.DBConnMaxLifetimeSeconds) * time.Second,
	}
}

// DBPoolConfigOptions returns config options for tuning the DB connection pool.
func DBPoolConfigOptions(opts *DBPoolOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:        "db-max-open-conns",
			Usage:       "Maximum number of open DB connections per pool",
			OptType:     types.Int,
			ConfigKey:   &opts.DBMaxOpenConns,
			FlagDefault: db.DefaultDBPoolConfig.MaxOpenConns,
			Required:    false,
		},
		{
			Name:        "db-max-idle-conns",
			Usage:       "Maximum number of idle DB connections retained per pool",
			OptType:     types.Int,
			ConfigKey:   &opts.DBMaxIdleConns,
			FlagDefault: db.DefaultDBPoolConfig.MaxIdleConns,
			Required:    false,
		},
		{
			Name:        "db-conn-max-idle-time-seconds",
			Usage:       "Maximum idle time in seconds before a connection is closed",
			OptType:     types.Int,
			ConfigKey:   &opts.DBConnMaxIdleTimeSeconds,
			FlagDefault: db.DefaultConnMaxIdleTimeSeconds,
			Required:    false,
		},
		{
			Name:        "db-conn-max-lifetime-seconds",
			Usage:       "Maximum lifetime in seconds for a single connection",
			OptType:     types.Int,
			ConfigKey:   &opts.DBConnMaxLifetimeSeconds,
			FlagDefault: db.DefaultConnMaxLifetimeSeconds,
			Required:    false,
		},
	}
}

func CrashTrackerTypeConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "crash-tracker-type",
		Usage:          `Crash tracker type. Options: "SENTRY", "DRY_RUN"`,
		OptType:        types.String,
		CustomSetValue: SetConfigOptionCrashTrackerType,
		ConfigKey:      targetPointer,
		FlagDefault:    string(crashtracker.CrashTrackerTypeDryRun),
		Required:       true,
	}
}

// IntakeOptions holds the tunables of the intake wizard sessions.
type IntakeOptions struct {
	ContactStep       bool
	SessionTTLSeconds int
	MaxSessions       int
	CustomerAPIURL    string
}

// SessionTTL returns the configured session lifetime.
func (o IntakeOptions) SessionTTL() time.Duration {
	return time.Duration(o.SessionTTLSeconds) * time.Second
}

func IntakeConfigOptions(opts *IntakeOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:        "intake-contact-step",
			Usage:       "Include the contact step in the intake wizard. When false the wizard has four steps.",
			OptType:     types.Bool,
			ConfigKey:   &opts.ContactStep,
			FlagDefault: true,
			Required:    false,
		},
		{
			Name:        "intake-session-ttl-seconds",
			Usage:       "Idle time in seconds after which an intake session is discarded",
			OptType:     types.Int,
			ConfigKey:   &opts.SessionTTLSeconds,
			FlagDefault: int(session.DefaultTTL / time.Second),
			Required:    false,
		},
		{
			Name:        "intake-max-sessions",
			Usage:       "Maximum number of intake sessions kept in memory. The least recently used one is evicted first.",
			OptType:     types.Int,
			ConfigKey:   &opts.MaxSessions,
			FlagDefault: session.DefaultMaxEntries,
			Required:    false,
		},
		{
			Name:           "customer-api-url",
			Usage:          "Base URL of a remote customer records API. When empty, intake sessions use the local database.",
			OptType:        types.String,
			CustomSetValue: SetConfigOptionOptionalURLString,
			ConfigKey:      &opts.CustomerAPIURL,
			Required:       false,
		},
	}
}
