package intake

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

var _ Gateway = (*MockGateway)(nil)

func (m *MockGateway) List(ctx context.Context) ([]CustomerRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CustomerRecord), args.Error(1)
}

func (m *MockGateway) Load(ctx context.Context, id string) (CustomerRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(CustomerRecord), args.Error(1)
}

func (m *MockGateway) Save(ctx context.Context, record CustomerRecord) (CustomerRecord, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(CustomerRecord), args.Error(1)
}

func (m *MockGateway) Update(ctx context.Context, id string, record CustomerRecord) (CustomerRecord, error) {
	args := m.Called(ctx, id, record)
	return args.Get(0).(CustomerRecord), args.Error(1)
}

// NewMockGateway creates a MockGateway and asserts its expectations when the test ends.
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
