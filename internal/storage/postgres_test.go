package storage

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/Sifanww/senlin-yogurt/internal/domain"
)

func setupRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func floatPtr(f float64) *float64 { return &f }

func today() string { return time.Now().Format("20060102") }

func TestCreateOrderComputesTotalFromClientPrice(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, price FROM products").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name", "price"}).AddRow("Signature Yogurt Bowl", 15.0))
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(42, 7, "Signature Yogurt Bowl", 18.0, 2, "Mango, Berry").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	receipt, err := repo.CreateOrder(1, []domain.NewOrderItem{
		{ProductID: 7, Quantity: 2, Price: floatPtr(18.0), Modifiers: "Mango, Berry"},
	}, "less sugar")

	assert.NoError(t, err)
	assert.Equal(t, 42, receipt.ID)
	assert.Equal(t, 36.0, receipt.TotalAmount)
	assert.Regexp(t, regexp.MustCompile(`^\d{23}$`), receipt.OrderNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderFallsBackToCatalogPrice(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, price FROM products").
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"name", "price"}).AddRow("Yogurt Cake", 58.0))
	mock.ExpectQuery("SELECT price FROM product_skus").
		WithArgs("eight", 8).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(88.0))
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(43, 8, "Yogurt Cake", 88.0, 1, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	receipt, err := repo.CreateOrder(1, []domain.NewOrderItem{
		{ProductID: 8, SKUID: "eight", Quantity: 1},
	}, "")

	assert.NoError(t, err)
	assert.Equal(t, 88.0, receipt.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUnknownProductRollsBack(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, price FROM products").
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	receipt, err := repo.CreateOrder(1, []domain.NewOrderItem{
		{ProductID: 999, Quantity: 1},
	}, "")

	assert.Nil(t, receipt)
	var invalidProduct *domain.InvalidProductError
	assert.True(t, errors.As(err, &invalidProduct))
	assert.Equal(t, 999, invalidProduct.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderItemFailureRollsBack(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, price FROM products").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name", "price"}).AddRow("Signature Yogurt Bowl", 15.0))
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(44))
	mock.ExpectExec("INSERT INTO order_items").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	receipt, err := repo.CreateOrder(1, []domain.NewOrderItem{
		{ProductID: 7, Quantity: 1},
	}, "")

	assert.Nil(t, receipt)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAllocatesPickupCode(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "pickup_number"}).AddRow(2, domain.StatusPreparing, ""))
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("pickup:" + today()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT pickup_number FROM orders").
		WithArgs(today() + "%").
		WillReturnRows(sqlmock.NewRows([]string{"pickup_number"}).AddRow(today() + "007"))
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.StatusReady, today()+"008", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	code, err := repo.UpdateStatus(5, domain.StatusReady, 99, true)

	assert.NoError(t, err)
	assert.Equal(t, today()+"008", code)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}\d{3}$`), code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusFirstCodeOfDay(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "pickup_number"}).AddRow(2, domain.StatusPreparing, ""))
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT pickup_number FROM orders").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.StatusReady, today()+"001", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	code, err := repo.UpdateStatus(5, domain.StatusReady, 99, true)

	assert.NoError(t, err)
	assert.Equal(t, today()+"001", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusClampsSequenceAt999(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "pickup_number"}).AddRow(2, domain.StatusPreparing, ""))
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT pickup_number FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"pickup_number"}).AddRow(today() + "999"))
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.StatusReady, today()+"999", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	code, err := repo.UpdateStatus(5, domain.StatusReady, 99, true)

	assert.NoError(t, err)
	assert.Equal(t, today()+"999", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusKeepsExistingPickupCode(t *testing.T) {
	repo, mock := setupRepo(t)

	existing := today() + "005"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "pickup_number"}).AddRow(2, domain.StatusCompleted, existing))
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.StatusReady, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	code, err := repo.UpdateStatus(5, domain.StatusReady, 99, true)

	assert.NoError(t, err)
	assert.Empty(t, code, "re-entering ready must not reallocate")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNonAdminForbidden(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "pickup_number"}).AddRow(2, domain.StatusPendingPayment, ""))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(5, domain.StatusCompleted, 2, false)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusOwnerCancels(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "pickup_number"}).AddRow(2, domain.StatusPendingPayment, ""))
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.StatusCancelled, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	code, err := repo.UpdateStatus(5, domain.StatusCancelled, 2, false)

	assert.NoError(t, err)
	assert.Empty(t, code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(404, domain.StatusPreparing, 1, true)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrderRequiresCancelledStatus(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status FROM orders").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status"}).AddRow(2, domain.StatusPreparing))
	mock.ExpectRollback()

	err := repo.DeleteOrder(5, 2, false)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrderRefusesAdmin(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status FROM orders").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status"}).AddRow(2, domain.StatusCancelled))
	mock.ExpectRollback()

	err := repo.DeleteOrder(5, 99, true)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrderRemovesItemsAndOrder(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status FROM orders").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status"}).AddRow(2, domain.StatusCancelled))
	mock.ExpectExec("DELETE FROM order_items").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM orders").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteOrder(5, 2, false)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRemarkNotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec("UPDATE orders SET remark").
		WithArgs("no ice", 404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRemark(404, "no ice")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderHidesForeignOrdersFromCustomers(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs(5, 2).
		WillReturnError(sql.ErrNoRows)

	order, err := repo.GetOrder(5, 2, false)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersScopesToOwner(t *testing.T) {
	repo, mock := setupRepo(t)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_no", "user_id", "total_amount", "status", "remark", "pickup_number", "created_at", "updated_at",
		}).AddRow(6, "20260831120000000123456", 2, 36.0, domain.StatusPendingPayment, "", "", now, now))
	mock.ExpectQuery("SELECT (.+) FROM order_items").
		WithArgs(6).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "product_name", "price", "quantity", "modifiers",
		}).AddRow(1, 6, 7, "Signature Yogurt Bowl", 18.0, 2, "Mango, Berry"))

	orders, err := repo.ListOrders(2, false, nil)

	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, 18.0, orders[0].Items[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}
