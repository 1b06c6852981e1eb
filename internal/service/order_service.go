package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Sifanww/senlin-yogurt/internal/domain"
)

var (
	ErrEmptyOrder    = errors.New("order must contain at least one item")
	ErrBadQuantity   = errors.New("item quantity must be at least 1")
	ErrUnknownStatus = errors.New("unknown order status")
	ErrMissingStatus = errors.New("status is required")
	ErrNegativePrice = errors.New("item price must not be negative")
)

type OrderService struct {
	repository OrderRepository
	publisher  OrderPublisher
	qrEncoder  QRGenerator
}

func NewOrderService(repository OrderRepository, publisher OrderPublisher, qr QRGenerator) *OrderService {
	return &OrderService{
		repository: repository,
		publisher:  publisher,
		qrEncoder:  qr,
	}
}

// Create validates the cart shape, persists the order atomically and emits an
// order_created event. Unit prices in items are trusted when present; the
// repository falls back to catalog prices otherwise.
func (s *OrderService) Create(ctx context.Context, user domain.User, items []domain.NewOrderItem, remark string) (*domain.OrderReceipt, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, ErrBadQuantity
		}
		if item.Price != nil && *item.Price < 0 {
			return nil, ErrNegativePrice
		}
	}

	receipt, err := s.repository.CreateOrder(user.ID, items, remark)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.OrderEvent{
		Type:        "order_created",
		OrderID:     receipt.ID,
		OrderNo:     receipt.OrderNo,
		UserID:      user.ID,
		Status:      domain.StatusPendingPayment,
		TotalAmount: receipt.TotalAmount,
		Timestamp:   time.Now(),
	})

	return receipt, nil
}

func (s *OrderService) List(ctx context.Context, user domain.User, statusFilter *int) ([]domain.Order, error) {
	if statusFilter != nil {
		normalized := domain.NormalizeStatus(*statusFilter)
		statusFilter = &normalized
	}
	return s.repository.ListOrders(user.ID, user.IsAdmin(), statusFilter)
}

func (s *OrderService) Get(ctx context.Context, user domain.User, orderID int) (*domain.Order, error) {
	return s.repository.GetOrder(orderID, user.ID, user.IsAdmin())
}

// UpdateStatus drives the state machine. The allow/deny decision and the
// pickup-code side effect both happen inside the repository transaction; the
// returned pickup number is non-empty only when a code was assigned by this
// call.
func (s *OrderService) UpdateStatus(ctx context.Context, user domain.User, orderID, status int) (string, error) {
	if !domain.ValidStatus(status) {
		return "", ErrUnknownStatus
	}
	status = domain.NormalizeStatus(status)

	pickupNumber, err := s.repository.UpdateStatus(orderID, status, user.ID, user.IsAdmin())
	if err != nil {
		return "", err
	}

	s.publish(ctx, domain.OrderEvent{
		Type:      "status_changed",
		OrderID:   orderID,
		UserID:    user.ID,
		Status:    status,
		Timestamp: time.Now(),
	})

	return pickupNumber, nil
}

func (s *OrderService) UpdateRemark(ctx context.Context, user domain.User, orderID int, remark string) error {
	if !user.IsAdmin() {
		return domain.ErrForbidden
	}
	return s.repository.UpdateRemark(orderID, remark)
}

func (s *OrderService) Delete(ctx context.Context, user domain.User, orderID int) error {
	return s.repository.DeleteOrder(orderID, user.ID, user.IsAdmin())
}

// PaymentQR renders the static payment QR for an order. Access is scoped the
// same way as Get; payment state never advances automatically.
func (s *OrderService) PaymentQR(ctx context.Context, user domain.User, orderID int) ([]byte, error) {
	order, err := s.repository.GetOrder(orderID, user.ID, user.IsAdmin())
	if err != nil {
		return nil, err
	}
	return s.qrEncoder.Generate(order.OrderNo, order.TotalAmount)
}

func (s *OrderService) publish(ctx context.Context, event domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		log.Printf("[order-svc] failed to publish %s event for order %d: %v", event.Type, event.OrderID, err)
	}
}
