package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/notify"
	"gearrent-backend/internal/storage"
)

// MockLedger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) result(args mock.Arguments) (*ledger.Result, error) {
	if r, ok := args.Get(0).(*ledger.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedger) Reserve(ctx context.Context, ref string, qty int, opID string) (*ledger.Result, error) {
	return m.result(m.Called(ctx, ref, qty, opID))
}

func (m *MockLedger) Release(ctx context.Context, ref string, qty int, opID string) (*ledger.Result, error) {
	return m.result(m.Called(ctx, ref, qty, opID))
}

func (m *MockLedger) MarkDamaged(ctx context.Context, ref string, opID string) (*ledger.Result, error) {
	return m.result(m.Called(ctx, ref, opID))
}

func (m *MockLedger) MarkRepairedOrRestored(ctx context.Context, ref, damageOpID, opID string) (*ledger.Result, error) {
	return m.result(m.Called(ctx, ref, damageOpID, opID))
}

func (m *MockLedger) WriteOff(ctx context.Context, ref string, opID string) (*ledger.Result, error) {
	return m.result(m.Called(ctx, ref, opID))
}

func (m *MockLedger) ReturnItems(ctx context.Context, ref string, qty int, opID string) (*ledger.Result, error) {
	return m.result(m.Called(ctx, ref, qty, opID))
}

func (m *MockLedger) AdjustStock(ctx context.Context, ref string, delta int, opID string) (*ledger.Result, error) {
	return m.result(m.Called(ctx, ref, delta, opID))
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetCapture(ctx context.Context, orderID string) (*domain.PaymentCapture, error) {
	args := m.Called(ctx, orderID)
	if c, ok := args.Get(0).(*domain.PaymentCapture); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMediaStore
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, u storage.Upload) (*domain.MediaAsset, error) {
	args := m.Called(ctx, u)
	if a, ok := args.Get(0).(*domain.MediaAsset); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}
