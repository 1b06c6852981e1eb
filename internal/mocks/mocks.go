// Package mocks holds testify mocks for the service and auth interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/Sifanww/senlin-yogurt/internal/domain"
)

type OrderRepository struct {
	mock.Mock
}

func NewOrderRepository(t *testing.T) *OrderRepository {
	m := &OrderRepository{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *OrderRepository) CreateOrder(userID int, items []domain.NewOrderItem, remark string) (*domain.OrderReceipt, error) {
	args := m.Called(userID, items, remark)
	if receipt, ok := args.Get(0).(*domain.OrderReceipt); ok {
		return receipt, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) ListOrders(requesterID int, isAdmin bool, statusFilter *int) ([]domain.Order, error) {
	args := m.Called(requesterID, isAdmin, statusFilter)
	if orders, ok := args.Get(0).([]domain.Order); ok {
		return orders, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) GetOrder(orderID, requesterID int, isAdmin bool) (*domain.Order, error) {
	args := m.Called(orderID, requesterID, isAdmin)
	if order, ok := args.Get(0).(*domain.Order); ok {
		return order, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) UpdateStatus(orderID, status, requesterID int, isAdmin bool) (string, error) {
	args := m.Called(orderID, status, requesterID, isAdmin)
	return args.String(0), args.Error(1)
}

func (m *OrderRepository) UpdateRemark(orderID int, remark string) error {
	args := m.Called(orderID, remark)
	return args.Error(0)
}

func (m *OrderRepository) DeleteOrder(orderID, requesterID int, isAdmin bool) error {
	args := m.Called(orderID, requesterID, isAdmin)
	return args.Error(0)
}

type OrderPublisher struct {
	mock.Mock
}

func NewOrderPublisher(t *testing.T) *OrderPublisher {
	m := &OrderPublisher{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *OrderPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type QRGenerator struct {
	mock.Mock
}

func NewQRGenerator(t *testing.T) *QRGenerator {
	m := &QRGenerator{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *QRGenerator) Generate(orderNo string, amount float64) ([]byte, error) {
	args := m.Called(orderNo, amount)
	if payload, ok := args.Get(0).([]byte); ok {
		return payload, args.Error(1)
	}
	return nil, args.Error(1)
}

type UserStore struct {
	mock.Mock
}

func NewUserStore(t *testing.T) *UserStore {
	m := &UserStore{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *UserStore) GetUser(userID int) (*domain.User, error) {
	args := m.Called(userID)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}
