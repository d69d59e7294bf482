package data

import (
	"errors"

	"github.com/stellar/customer-intake-backend/db"
)

var (
	ErrRecordNotFound          = errors.New("record not found")
	ErrMismatchNumRowsAffected = errors.New("mismatch number of rows affected")
	ErrMissingInput            = errors.New("missing input")
)

type Models struct {
	Customers        *CustomerModel
	DBConnectionPool db.DBConnectionPool
}

func NewModels(dbConnectionPool db.DBConnectionPool) (*Models, error) {
	if dbConnectionPool == nil {
		return nil, errors.New("dbConnectionPool is required for NewModels")
	}
	return &Models{
		Customers:        &CustomerModel{dbConnectionPool: dbConnectionPool},
		DBConnectionPool: dbConnectionPool,
	}, nil
}
