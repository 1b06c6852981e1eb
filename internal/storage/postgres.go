package storage

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/Sifanww/senlin-yogurt/internal/domain"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// generateOrderNo builds the human order number: wall-clock timestamp down to
// milliseconds plus six random digits.
func generateOrderNo() string {
	now := time.Now()
	return fmt.Sprintf("%s%03d%06d",
		now.Format("20060102150405"),
		now.Nanosecond()/1e6,
		rand.Intn(1000000))
}

func dayStamp(t time.Time) string {
	return t.Format("20060102")
}

// nextPickupNumber allocates the next day-scoped pickup code inside tx. The
// per-day advisory lock serializes concurrent allocations so two orders can
// never read the same max. The sequence is derived from the codes already in
// orders, never from a separate counter, so it survives a restore from
// backup. 999 is an accepted scale ceiling; it clamps rather than rolls over.
func nextPickupNumber(tx *sql.Tx, now time.Time) (string, error) {
	day := dayStamp(now)

	if _, err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext($1))", "pickup:"+day); err != nil {
		return "", fmt.Errorf("failed to lock pickup sequence: %w", err)
	}

	var latest string
	err := tx.QueryRow(`
		SELECT pickup_number FROM orders
		WHERE pickup_number LIKE $1
		ORDER BY pickup_number DESC
		LIMIT 1
	`, day+"%").Scan(&latest)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to read latest pickup number: %w", err)
	}

	seq := 1
	if len(latest) > 3 {
		lastSeq, convErr := strconv.Atoi(latest[len(latest)-3:])
		if convErr == nil {
			seq = lastSeq + 1
		}
	}
	if seq > 999 {
		log.Printf("[order-svc] pickup sequence ceiling reached for %s, reusing 999", day)
		seq = 999
	}

	return fmt.Sprintf("%s%03d", day, seq), nil
}

// CreateOrder persists the order header and every line item in one
// transaction. Product ids are validated against the catalog; the unit price
// is the client's when supplied, else the SKU price, else the product base
// price. The total is always recomputed server-side from unit price and
// quantity.
func (r *PostgresRepository) CreateOrder(userID int, items []domain.NewOrderItem, remark string) (*domain.OrderReceipt, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	type pricedItem struct {
		domain.NewOrderItem
		productName string
		unitPrice   float64
	}

	priced := make([]pricedItem, 0, len(items))
	var totalAmount float64

	for _, item := range items {
		var productName string
		var basePrice float64
		err := tx.QueryRow("SELECT name, price FROM products WHERE id = $1", item.ProductID).
			Scan(&productName, &basePrice)
		if err == sql.ErrNoRows {
			return nil, &domain.InvalidProductError{ProductID: item.ProductID}
		}
		if err != nil {
			return nil, err
		}

		unitPrice := basePrice
		if item.Price != nil {
			unitPrice = *item.Price
		} else if item.SKUID != "" {
			var skuPrice float64
			err := tx.QueryRow("SELECT price FROM product_skus WHERE id = $1 AND product_id = $2",
				item.SKUID, item.ProductID).Scan(&skuPrice)
			if err == nil {
				unitPrice = skuPrice
			} else if err != sql.ErrNoRows {
				return nil, err
			}
		}

		priced = append(priced, pricedItem{NewOrderItem: item, productName: productName, unitPrice: unitPrice})
		totalAmount += unitPrice * float64(item.Quantity)
	}

	orderNo := generateOrderNo()

	var orderID int
	if err := tx.QueryRow(`
		INSERT INTO orders (order_no, user_id, total_amount, status, remark)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, orderNo, userID, totalAmount, domain.StatusPendingPayment, remark).Scan(&orderID); err != nil {
		return nil, err
	}

	for _, item := range priced {
		if _, err := tx.Exec(`
			INSERT INTO order_items (order_id, product_id, product_name, price, quantity, modifiers)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, item.ProductID, item.productName, item.unitPrice, item.Quantity, item.Modifiers); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.OrderReceipt{ID: orderID, OrderNo: orderNo, TotalAmount: totalAmount}, nil
}

const orderColumns = `o.id, o.order_no, o.user_id, o.total_amount, o.status,
	COALESCE(o.remark, ''), COALESCE(o.pickup_number, ''), o.created_at, o.updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }, order *domain.Order, withNickname bool) error {
	dest := []interface{}{
		&order.ID, &order.OrderNo, &order.UserID, &order.TotalAmount, &order.Status,
		&order.Remark, &order.PickupNumber, &order.CreatedAt, &order.UpdatedAt,
	}
	if withNickname {
		dest = append(dest, &order.UserNickname)
	}
	return row.Scan(dest...)
}

// ListOrders returns the requester's own orders, or every order annotated
// with the owner's nickname for admins. Ordered by internal sequence, newest
// first, so the ordering stays stable under clock skew.
func (r *PostgresRepository) ListOrders(requesterID int, isAdmin bool, statusFilter *int) ([]domain.Order, error) {
	var (
		query  string
		params []interface{}
	)

	if isAdmin {
		query = `
			SELECT ` + orderColumns + `, COALESCE(u.nickname, '')
			FROM orders o
			LEFT JOIN users u ON o.user_id = u.id`
		if statusFilter != nil {
			query += " WHERE o.status = $1"
			params = append(params, *statusFilter)
		}
	} else {
		query = `
			SELECT ` + orderColumns + `
			FROM orders o
			WHERE o.user_id = $1`
		params = append(params, requesterID)
		if statusFilter != nil {
			query += " AND o.status = $2"
			params = append(params, *statusFilter)
		}
	}
	query += " ORDER BY o.id DESC"

	rows, err := r.DB.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order, isAdmin); err != nil {
			continue
		}
		orders = append(orders, order)
	}

	for i := range orders {
		items, err := r.listItems(orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// GetOrder returns one order with its items. A customer's query is scoped to
// their own orders, so a foreign order reads as not found rather than
// revealing that it exists.
func (r *PostgresRepository) GetOrder(orderID, requesterID int, isAdmin bool) (*domain.Order, error) {
	var order domain.Order
	var err error

	if isAdmin {
		err = scanOrder(r.DB.QueryRow(`
			SELECT `+orderColumns+`, COALESCE(u.nickname, '')
			FROM orders o
			LEFT JOIN users u ON o.user_id = u.id
			WHERE o.id = $1`, orderID), &order, true)
	} else {
		err = scanOrder(r.DB.QueryRow(`
			SELECT `+orderColumns+`
			FROM orders o
			WHERE o.id = $1 AND o.user_id = $2`, orderID, requesterID), &order, false)
	}

	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *PostgresRepository) listItems(orderID int) ([]domain.OrderItem, error) {
	rows, err := r.DB.Query(`
		SELECT id, order_id, product_id, product_name, price, quantity, COALESCE(modifiers, '')
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Price, &item.Quantity, &item.Modifiers); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// UpdateStatus applies one state-machine transition. The order row is locked
// and the decision made against the status read under that lock. Entering
// ready-for-pickup assigns a pickup code in the same transaction, once; a
// code already on the order is never replaced.
func (r *PostgresRepository) UpdateStatus(orderID, status, requesterID int, isAdmin bool) (string, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var ownerID, currentStatus int
	var pickupNumber string
	err = tx.QueryRow(`
		SELECT user_id, status, COALESCE(pickup_number, '')
		FROM orders WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&ownerID, &currentStatus, &pickupNumber)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if !domain.CanTransition(isAdmin, ownerID == requesterID, currentStatus, status) {
		return "", domain.ErrForbidden
	}

	assigned := ""
	if status == domain.StatusReady && pickupNumber == "" {
		assigned, err = nextPickupNumber(tx, time.Now())
		if err != nil {
			return "", err
		}
		_, err = tx.Exec(`
			UPDATE orders SET status = $1, pickup_number = $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $3
		`, status, assigned, orderID)
	} else {
		_, err = tx.Exec(`
			UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2
		`, status, orderID)
	}
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return assigned, nil
}

// UpdateRemark edits the free-text remark. Amounts and items are never
// touched here.
func (r *PostgresRepository) UpdateRemark(orderID int, remark string) error {
	result, err := r.DB.Exec(`
		UPDATE orders SET remark = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, remark, orderID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOrder removes a cancelled order and its items together. Only the
// owner may delete, and only after cancellation.
func (r *PostgresRepository) DeleteOrder(orderID, requesterID int, isAdmin bool) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ownerID, status int
	err = tx.QueryRow(`
		SELECT user_id, status FROM orders WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&ownerID, &status)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if !domain.CanDelete(isAdmin, ownerID == requesterID, status) {
		return domain.ErrForbidden
	}

	if _, err := tx.Exec("DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM orders WHERE id = $1", orderID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetUser resolves an authenticated user id to its profile.
func (r *PostgresRepository) GetUser(userID int) (*domain.User, error) {
	var user domain.User
	err := r.DB.QueryRow(`
		SELECT id, COALESCE(nickname, ''), COALESCE(role, 'customer')
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.Nickname, &user.Role)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id SERIAL PRIMARY KEY,
			order_no TEXT NOT NULL UNIQUE,
			user_id INTEGER NOT NULL,
			total_amount NUMERIC NOT NULL,
			status INTEGER NOT NULL DEFAULT 0,
			remark TEXT,
			pickup_number TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL REFERENCES orders(id),
			product_id INTEGER NOT NULL,
			product_name TEXT NOT NULL,
			price NUMERIC NOT NULL,
			quantity INTEGER NOT NULL,
			modifiers TEXT
		)`,
		"ALTER TABLE IF EXISTS orders ADD COLUMN IF NOT EXISTS pickup_number TEXT",
		"CREATE INDEX IF NOT EXISTS idx_orders_pickup_number ON orders (pickup_number)",
	}
	for _, stmt := range statements {
		if _, err := r.DB.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema `%s`: %w", stmt, err)
		}
	}
	return nil
}
