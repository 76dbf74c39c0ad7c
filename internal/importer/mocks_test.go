package importer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
)

type MockDuplicateChecker struct{ mock.Mock }

func (m *MockDuplicateChecker) ExistingOrderNumbers(ctx context.Context, orderNos []string) (map[string]struct{}, error) {
	args := m.Called(ctx, orderNos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

type MockSKUValidator struct{ mock.Mock }

func (m *MockSKUValidator) ValidateSKUs(ctx context.Context, codes []string) (domain.SKUValidation, error) {
	args := m.Called(ctx, codes)
	return args.Get(0).(domain.SKUValidation), args.Error(1)
}

type MockSKUExistenceChecker struct{ mock.Mock }

func (m *MockSKUExistenceChecker) ExistingSKUs(ctx context.Context, codes []string) (domain.SKUExistence, error) {
	args := m.Called(ctx, codes)
	return args.Get(0).(domain.SKUExistence), args.Error(1)
}

type MockOrderCreator struct{ mock.Mock }

func (m *MockOrderCreator) CreateOrder(ctx context.Context, order domain.OrderCreateData) (domain.CreateResult, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(domain.CreateResult), args.Error(1)
}

type MockSKUCreator struct{ mock.Mock }

func (m *MockSKUCreator) CreateSKU(ctx context.Context, sku domain.SKUCreateData) (domain.CreateResult, error) {
	args := m.Called(ctx, sku)
	return args.Get(0).(domain.CreateResult), args.Error(1)
}

type MockSKUUpdater struct{ mock.Mock }

func (m *MockSKUUpdater) UpdateSKU(ctx context.Context, code string, data domain.SKUUpdateData) (domain.UpdateResult, error) {
	args := m.Called(ctx, code, data)
	return args.Get(0).(domain.UpdateResult), args.Error(1)
}
