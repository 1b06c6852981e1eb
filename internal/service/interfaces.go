package service

import (
	"context"

	"github.com/Sifanww/senlin-yogurt/internal/domain"
)

type OrderServiceInterface interface {
	Create(ctx context.Context, user domain.User, items []domain.NewOrderItem, remark string) (*domain.OrderReceipt, error)
	List(ctx context.Context, user domain.User, statusFilter *int) ([]domain.Order, error)
	Get(ctx context.Context, user domain.User, orderID int) (*domain.Order, error)
	UpdateStatus(ctx context.Context, user domain.User, orderID, status int) (string, error)
	UpdateRemark(ctx context.Context, user domain.User, orderID int, remark string) error
	Delete(ctx context.Context, user domain.User, orderID int) error
	PaymentQR(ctx context.Context, user domain.User, orderID int) ([]byte, error)
}

type OrderRepository interface {
	CreateOrder(userID int, items []domain.NewOrderItem, remark string) (*domain.OrderReceipt, error)
	ListOrders(requesterID int, isAdmin bool, statusFilter *int) ([]domain.Order, error)
	GetOrder(orderID, requesterID int, isAdmin bool) (*domain.Order, error)
	UpdateStatus(orderID, status, requesterID int, isAdmin bool) (string, error)
	UpdateRemark(orderID int, remark string) error
	DeleteOrder(orderID, requesterID int, isAdmin bool) error
}

type OrderPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

var _ OrderServiceInterface = (*OrderService)(nil)
