package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellar/customer-intake-backend/internal/intake"
)

// CustomerGateway serves the intake gateway straight from the customers table.
type CustomerGateway struct {
	customers *CustomerModel
}

func NewCustomerGateway(models *Models) *CustomerGateway {
	return &CustomerGateway{customers: models.Customers}
}

var _ intake.Gateway = (*CustomerGateway)(nil)

func (g *CustomerGateway) List(ctx context.Context) ([]intake.CustomerRecord, error) {
	customers, err := g.customers.GetAll(ctx, QueryParams{})
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}

	records := make([]intake.CustomerRecord, 0, len(customers))
	for _, c := range customers {
		records = append(records, c.Record())
	}
	return records, nil
}

func (g *CustomerGateway) Load(ctx context.Context, id string) (intake.CustomerRecord, error) {
	customer, err := g.customers.Get(ctx, id)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("loading customer %s: %w", id, gatewayError(err))
	}
	return customer.Record(), nil
}

func (g *CustomerGateway) Save(ctx context.Context, record intake.CustomerRecord) (intake.CustomerRecord, error) {
	customer, err := g.customers.Insert(ctx, record)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("saving customer: %w", err)
	}
	return customer.Record(), nil
}

func (g *CustomerGateway) Update(ctx context.Context, id string, record intake.CustomerRecord) (intake.CustomerRecord, error) {
	customer, err := g.customers.Update(ctx, id, record)
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("updating customer %s: %w", id, gatewayError(err))
	}
	return customer.Record(), nil
}

// gatewayError translates store errors into the intake sentinels.
func gatewayError(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", intake.ErrRecordNotFound, err)
	}
	return err
}
