package data

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/stellar/customer-intake-backend/internal/intake"
)

type CustomerStoreMock struct {
	mock.Mock
}

var _ CustomerStore = (*CustomerStoreMock)(nil)

func (m *CustomerStoreMock) Get(ctx context.Context, id string) (*Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func (m *CustomerStoreMock) GetAll(ctx context.Context, queryParams QueryParams) ([]Customer, error) {
	args := m.Called(ctx, queryParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Customer), args.Error(1)
}

func (m *CustomerStoreMock) Insert(ctx context.Context, record intake.CustomerRecord) (*Customer, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func (m *CustomerStoreMock) Update(ctx context.Context, id string, record intake.CustomerRecord) (*Customer, error) {
	args := m.Called(ctx, id, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func (m *CustomerStoreMock) SetVerificationStatus(ctx context.Context, id string, index int, status intake.VerificationStatus) (*Customer, error) {
	args := m.Called(ctx, id, index, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func (m *CustomerStoreMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type testInterface interface {
	mock.TestingT
	Cleanup(func())
}

// NewCustomerStoreMock creates a new instance of CustomerStoreMock. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewCustomerStoreMock(t testInterface) *CustomerStoreMock {
	m := &CustomerStoreMock{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
