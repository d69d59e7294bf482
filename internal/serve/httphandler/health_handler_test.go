package httphandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/customer-intake-backend/db"
)

func openPingMock(t *testing.T) (db.DBConnectionPool, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		sqlDB.Close()
	})

	return db.NewDBConnectionPool(sqlx.NewDb(sqlDB, "postgres")), sqlMock
}

func TestHealthHandler(t *testing.T) {
	dbConnectionPool, sqlMock := openPingMock(t)

	r := chi.NewRouter()
	r.Get("/health", HealthHandler{
		Version:   "x.y.z",
		ServiceID: "intake-api",
		ReleaseID: "1234567890abcdef",
		Checks:    map[string]HealthCheck{"database": dbConnectionPool.Ping},
	}.ServeHTTP)

	t.Run("✅ healthy", func(t *testing.T) {
		sqlMock.ExpectPing()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"status": "pass",
			"version": "x.y.z",
			"service_id": "intake-api",
			"release_id": "1234567890abcdef",
			"services": {
				"database": "pass"
			}
		}`, w.Body.String())
	})

	t.Run("❌ unhealthy because the DB is down", func(t *testing.T) {
		sqlMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{
			"status": "fail",
			"version": "x.y.z",
			"service_id": "intake-api",
			"release_id": "1234567890abcdef",
			"services": {
				"database": "fail"
			}
		}`, w.Body.String())
	})

	t.Run("every failing check is reported", func(t *testing.T) {
		sqlMock.ExpectPing()

		r := chi.NewRouter()
		r.Get("/health", HealthHandler{
			Checks: map[string]HealthCheck{
				"database":     dbConnectionPool.Ping,
				"customer_api": func(context.Context) error { return errors.New("dial tcp: connection refused") },
			},
		}.ServeHTTP)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{
			"status": "fail",
			"services": {
				"customer_api": "fail",
				"database": "pass"
			}
		}`, w.Body.String())
	})
}
