package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stellar/customer-intake-backend/db"
)

func Test_DBPoolOptions_PoolConfig(t *testing.T) {
	opts := DBPoolOptions{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           3,
		DBConnMaxIdleTimeSeconds: 15,
		DBConnMaxLifetimeSeconds: 600,
	}

	assert.Equal(t, db.DBPoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    3,
		ConnMaxIdleTime: 15 * time.Second,
		ConnMaxLifetime: 10 * time.Minute,
	}, opts.PoolConfig())
}

func Test_IntakeOptions_SessionTTL(t *testing.T) {
	assert.Equal(t, 90*time.Second, IntakeOptions{SessionTTLSeconds: 90}.SessionTTL())
	assert.Equal(t, time.Duration(0), IntakeOptions{}.SessionTTL())
}

func Test_DBPoolConfigOptions_defaults(t *testing.T) {
	opts := DBPoolOptions{}
	configOptions := DBPoolConfigOptions(&opts)

	defaults := map[string]interface{}{}
	for _, co := range configOptions {
		defaults[co.Name] = co.FlagDefault
	}
	assert.Equal(t, map[string]interface{}{
		"db-max-open-conns":             db.DefaultDBPoolConfig.MaxOpenConns,
		"db-max-idle-conns":             db.DefaultDBPoolConfig.MaxIdleConns,
		"db-conn-max-idle-time-seconds": db.DefaultConnMaxIdleTimeSeconds,
		"db-conn-max-lifetime-seconds":  db.DefaultConnMaxLifetimeSeconds,
	}, defaults)
}
