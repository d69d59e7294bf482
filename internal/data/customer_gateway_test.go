package data

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/customer-intake-backend/db/dbtest"
	"github.com/stellar/customer-intake-backend/internal/intake"
)

func Test_CustomerGateway(t *testing.T) {
	ctx := context.Background()

	newGateway := func(t *testing.T) (*CustomerGateway, sqlmock.Sqlmock) {
		dbConnectionPool, sqlMock := dbtest.OpenWithMock(t)
		models, err := NewModels(dbConnectionPool)
		require.NoError(t, err)
		return NewCustomerGateway(models), sqlMock
	}

	t.Run("List", func(t *testing.T) {
		gw, sqlMock := newGateway(t)
		rows := sqlmock.NewRows(customerRowColumns)
		addCustomerRow(t, rows, "2", janeRecord())
		sqlMock.ExpectQuery(`ORDER BY c.created_at DESC`).WillReturnRows(rows)

		records, err := gw.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2", records[0].ID)
		assert.Equal(t, "Jane Marie Doe", records[0].Name.FullName())
	})

	t.Run("Load maps missing rows to the intake sentinel", func(t *testing.T) {
		gw, sqlMock := newGateway(t)
		sqlMock.ExpectQuery(`WHERE c.id = \$1`).WithArgs("9").WillReturnRows(sqlmock.NewRows(customerRowColumns))

		_, err := gw.Load(ctx, "9")
		assert.ErrorIs(t, err, intake.ErrRecordNotFound)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("the wizard submits through the gateway", func(t *testing.T) {
		gw, sqlMock := newGateway(t)
		sqlMock.ExpectQuery(`INSERT INTO customers`).
			WillReturnRows(addCustomerRow(t, sqlmock.NewRows(customerRowColumns), "5", janeRecord()))

		w, err := intake.ResumeWizard(intake.FiveStepFlow, janeRecord())
		require.NoError(t, err)

		saved, err := w.Submit(ctx, gw)
		require.NoError(t, err)
		assert.Equal(t, "5", saved.ID)
		assert.True(t, w.Done())
	})

	t.Run("Update of a missing record", func(t *testing.T) {
		gw, sqlMock := newGateway(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(`FOR UPDATE`).WithArgs("9").WillReturnRows(sqlmock.NewRows([]string{"identity_proofs"}))
		sqlMock.ExpectRollback()

		_, err := gw.Update(ctx, "9", janeRecord())
		assert.ErrorIs(t, err, intake.ErrRecordNotFound)
	})
}
