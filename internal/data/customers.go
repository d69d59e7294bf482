package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stellar/customer-intake-backend/db"
	"github.com/stellar/customer-intake-backend/internal/intake"
)

// Customer is a customer record as stored in the customers table.
type Customer struct {
	ID                string                                `db:"id"`
	FirstName         string                                `db:"first_name"`
	MiddleName        string                                `db:"middle_name"`
	LastName          string                                `db:"last_name"`
	DateOfBirth       string                                `db:"date_of_birth"`
	Address           JSONColumn[intake.Address]            `db:"address"`
	ContactDetails    JSONColumn[*intake.ContactDetails]    `db:"contact_details"`
	IdentityDocuments JSONColumn[[]intake.IdentityDocument] `db:"identity_documents"`
	IdentityProofs    JSONColumn[[]intake.IdentityProof]    `db:"identity_proofs"`
	CreatedAt         time.Time                             `db:"created_at"`
	UpdatedAt         time.Time                             `db:"updated_at"`
}

// CustomerFromRecord maps a record onto a row. The id and timestamps are owned by the database and are not copied.
func CustomerFromRecord(record intake.CustomerRecord) Customer {
	documents := record.IdentityDocuments
	if documents == nil {
		documents = []intake.IdentityDocument{}
	}
	proofs := record.IdentityProofs
	if proofs == nil {
		proofs = []intake.IdentityProof{}
	}

	return Customer{
		FirstName:         record.Name.FirstName,
		MiddleName:        record.Name.MiddleName,
		LastName:          record.Name.LastName,
		DateOfBirth:       string(record.DateOfBirth),
		Address:           NewJSONColumn(record.Address),
		ContactDetails:    NewJSONColumn(record.ContactDetails),
		IdentityDocuments: NewJSONColumn(documents),
		IdentityProofs:    NewJSONColumn(proofs),
	}
}

// Record maps the row back onto the canonical record.
func (c Customer) Record() intake.CustomerRecord {
	createdAt, updatedAt := c.CreatedAt, c.UpdatedAt
	record := intake.CustomerRecord{
		ID:                c.ID,
		Name:              intake.CustomerName{FirstName: c.FirstName, MiddleName: c.MiddleName, LastName: c.LastName},
		DateOfBirth:       intake.Date(c.DateOfBirth),
		Address:           c.Address.V,
		ContactDetails:    c.ContactDetails.V,
		IdentityDocuments: c.IdentityDocuments.V,
		IdentityProofs:    c.IdentityProofs.V,
		CreatedAt:         &createdAt,
		UpdatedAt:         &updatedAt,
	}
	if record.IdentityDocuments == nil {
		record.IdentityDocuments = []intake.IdentityDocument{}
	}
	if record.IdentityProofs == nil {
		record.IdentityProofs = []intake.IdentityProof{}
	}
	return record
}

type CustomerModel struct {
	dbConnectionPool db.DBConnectionPool
}

const customerColumns = `
	c.id,
	c.first_name,
	c.middle_name,
	c.last_name,
	c.date_of_birth,
	c.address,
	c.contact_details,
	c.identity_documents,
	c.identity_proofs,
	c.created_at,
	c.updated_at
`

const customerReturningColumns = `
	id,
	first_name,
	middle_name,
	last_name,
	date_of_birth,
	address,
	contact_details,
	identity_documents,
	identity_proofs,
	created_at,
	updated_at
`

func (m *CustomerModel) Get(ctx context.Context, id string) (*Customer, error) {
	var customer Customer
	query := fmt.Sprintf(`
		SELECT
			%s
		FROM
			customers c
		WHERE
			c.id = $1
		`, customerColumns)

	err := m.dbConnectionPool.GetContext(ctx, &customer, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying customer ID %s: %w", id, err)
	}
	return &customer, nil
}

// GetAll returns the customers matching queryParams. Without an explicit sort they come newest first.
func (m *CustomerModel) GetAll(ctx context.Context, queryParams QueryParams) ([]Customer, error) {
	customers := []Customer{}

	qb := NewQueryBuilder(fmt.Sprintf("SELECT %s FROM customers c", customerColumns))
	if q := strings.TrimSpace(queryParams.Query); q != "" {
		like := "%" + q + "%"
		qb.AddCondition("(c.first_name ILIKE ? OR c.last_name ILIKE ? OR c.id ILIKE ?)", like, like, like)
	}

	sortBy, sortOrder := queryParams.SortBy, queryParams.SortOrder
	if !sortBy.IsValid() {
		sortBy = SortFieldCreatedAt
	}
	if !sortOrder.IsValid() {
		sortOrder = SortOrderDESC
	}
	qb.AddSorting(sortBy, sortOrder, "c")
	qb.AddPagination(queryParams.Page, queryParams.PageLimit)

	query, params := qb.BuildAndRebind(m.dbConnectionPool)
	err := m.dbConnectionPool.SelectContext(ctx, &customers, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	return customers, nil
}

// Insert stores a new customer. Proofs always start PENDING: verification is assigned by the backend only.
func (m *CustomerModel) Insert(ctx context.Context, record intake.CustomerRecord) (*Customer, error) {
	row := CustomerFromRecord(record)
	proofs := make([]intake.IdentityProof, 0, len(row.IdentityProofs.V))
	for _, p := range row.IdentityProofs.V {
		p.VerificationStatus = intake.VerificationStatusPending
		proofs = append(proofs, p)
	}
	row.IdentityProofs = NewJSONColumn(proofs)

	query := fmt.Sprintf(`
		INSERT INTO customers
			(first_name, middle_name, last_name, date_of_birth, address, contact_details, identity_documents, identity_proofs)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING
			%s
		`, customerReturningColumns)

	var customer Customer
	err := m.dbConnectionPool.GetContext(ctx, &customer, query,
		row.FirstName, row.MiddleName, row.LastName, row.DateOfBirth,
		row.Address, row.ContactDetails, row.IdentityDocuments, row.IdentityProofs,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting customer: %w", err)
	}
	return &customer, nil
}

// Update replaces every field of the customer stored under id. Verification statuses are carried over from the
// stored proofs and never taken from record.
func (m *CustomerModel) Update(ctx context.Context, id string, record intake.CustomerRecord) (*Customer, error) {
	return db.RunInTransactionWithResult(ctx, m.dbConnectionPool, nil, func(dbTx db.DBTransaction) (*Customer, error) {
		var stored JSONColumn[[]intake.IdentityProof]
		err := dbTx.GetContext(ctx, &stored, "SELECT identity_proofs FROM customers WHERE id = $1 FOR UPDATE", id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrRecordNotFound
			}
			return nil, fmt.Errorf("locking customer ID %s: %w", id, err)
		}

		row := CustomerFromRecord(record)
		row.IdentityProofs = NewJSONColumn(intake.CarryVerificationStatus(stored.V, row.IdentityProofs.V))

		query := fmt.Sprintf(`
			UPDATE
				customers
			SET
				first_name = $1,
				middle_name = $2,
				last_name = $3,
				date_of_birth = $4,
				address = $5,
				contact_details = $6,
				identity_documents = $7,
				identity_proofs = $8
			WHERE
				id = $9
			RETURNING
				%s
			`, customerReturningColumns)

		var customer Customer
		err = dbTx.GetContext(ctx, &customer, query,
			row.FirstName, row.MiddleName, row.LastName, row.DateOfBirth,
			row.Address, row.ContactDetails, row.IdentityDocuments, row.IdentityProofs,
			id,
		)
		if err != nil {
			return nil, fmt.Errorf("updating customer ID %s: %w", id, err)
		}
		return &customer, nil
	})
}

// SetVerificationStatus records the backend's verdict on the proof at index.
func (m *CustomerModel) SetVerificationStatus(ctx context.Context, id string, index int, status intake.VerificationStatus) (*Customer, error) {
	return db.RunInTransactionWithResult(ctx, m.dbConnectionPool, nil, func(dbTx db.DBTransaction) (*Customer, error) {
		var stored JSONColumn[[]intake.IdentityProof]
		err := dbTx.GetContext(ctx, &stored, "SELECT identity_proofs FROM customers WHERE id = $1 FOR UPDATE", id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrRecordNotFound
			}
			return nil, fmt.Errorf("locking customer ID %s: %w", id, err)
		}
		if index < 0 || index >= len(stored.V) {
			return nil, fmt.Errorf("proof index %d of customer ID %s: %w", index, id, ErrRecordNotFound)
		}
		stored.V[index].VerificationStatus = status

		query := fmt.Sprintf(`
			UPDATE customers SET identity_proofs = $1 WHERE id = $2
			RETURNING
				%s
			`, customerReturningColumns)

		var customer Customer
		if err = dbTx.GetContext(ctx, &customer, query, stored, id); err != nil {
			return nil, fmt.Errorf("updating proofs of customer ID %s: %w", id, err)
		}
		return &customer, nil
	})
}

func (m *CustomerModel) Delete(ctx context.Context, id string) error {
	result, err := m.dbConnectionPool.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting customer ID %s: %w", id, err)
	}

	numRowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting number of rows affected: %w", err)
	}
	if numRowsAffected == 0 {
		return ErrRecordNotFound
	}
	if numRowsAffected != 1 {
		return fmt.Errorf("%w: deleted %d customers for ID %s", ErrMismatchNumRowsAffected, numRowsAffected, id)
	}
	return nil
}

// CustomerStore is the set of customer operations served over HTTP.
type CustomerStore interface {
	Get(ctx context.Context, id string) (*Customer, error)
	GetAll(ctx context.Context, queryParams QueryParams) ([]Customer, error)
	Insert(ctx context.Context, record intake.CustomerRecord) (*Customer, error)
	Update(ctx context.Context, id string, record intake.CustomerRecord) (*Customer, error)
	SetVerificationStatus(ctx context.Context, id string, index int, status intake.VerificationStatus) (*Customer, error)
	Delete(ctx context.Context, id string) error
}

var _ CustomerStore = (*CustomerModel)(nil)
