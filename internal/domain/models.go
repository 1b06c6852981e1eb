package domain

import "time"

// Order statuses. Cancelled is stored as 4 everywhere; the legacy value 5
// seen in old exports is accepted on input and normalized.
const (
	StatusPendingPayment = 0
	StatusPreparing      = 1
	StatusReady          = 2
	StatusCompleted      = 3
	StatusCancelled      = 4

	legacyCancelled = 5
)

// NormalizeStatus maps the legacy cancel code onto StatusCancelled.
func NormalizeStatus(status int) int {
	if status == legacyCancelled {
		return StatusCancelled
	}
	return status
}

// ValidStatus reports whether status (after normalization) is a known state.
func ValidStatus(status int) bool {
	s := NormalizeStatus(status)
	return s >= StatusPendingPayment && s <= StatusCancelled
}

// TerminalStatus reports whether no further transitions are expected.
func TerminalStatus(status int) bool {
	s := NormalizeStatus(status)
	return s == StatusCompleted || s == StatusCancelled
}

type User struct {
	ID       int    `json:"id"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func (u User) IsAdmin() bool { return u.Role == "admin" }

type Order struct {
	ID           int         `json:"id"`
	OrderNo      string      `json:"order_no"`
	UserID       int         `json:"user_id"`
	UserNickname string      `json:"user_nickname,omitempty"`
	TotalAmount  float64     `json:"total_amount"`
	Status       int         `json:"status"`
	Remark       string      `json:"remark"`
	PickupNumber string      `json:"pickup_number,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Items        []OrderItem `json:"items"`
}

type OrderItem struct {
	ID          int     `json:"id"`
	OrderID     int     `json:"order_id"`
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Modifiers   string  `json:"modifiers,omitempty"`
}

// NewOrderItem is one line of an incoming order request. Price and SKUID are
// optional: the client sends Price when the unit price includes SKU or
// modifier surcharges it computed locally.
type NewOrderItem struct {
	ProductID int      `json:"product_id"`
	SKUID     string   `json:"sku_id,omitempty"`
	Quantity  int      `json:"quantity"`
	Price     *float64 `json:"price,omitempty"`
	Modifiers string   `json:"modifiers,omitempty"`
}

// OrderReceipt is what order creation hands back to the client.
type OrderReceipt struct {
	ID          int     `json:"id"`
	OrderNo     string  `json:"order_no"`
	TotalAmount float64 `json:"total_amount"`
}

// Product sku_mode values.
const (
	SKUModeSingle = "single"
	SKUModeMulti  = "multi"
)

type Product struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	SKUMode        string          `json:"sku_mode"`
	BasePrice      float64         `json:"base_price"`
	SKUs           []SKU           `json:"skus,omitempty"`
	ModifierGroups []ModifierGroup `json:"modifier_groups,omitempty"`
}

type SKU struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stock   *int    `json:"stock,omitempty"`
	SoldOut bool    `json:"sold_out"`
}

type ModifierGroup struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	CtrlType string           `json:"ctrl_type"`
	Rules    ModifierRules    `json:"rules"`
	Options  []ModifierOption `json:"options"`
}

type ModifierRules struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type ModifierOption struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	SoldOut bool    `json:"sold_out"`
}

type PriceBreakdown struct {
	Base           float64 `json:"base"`
	ModifiersTotal float64 `json:"modifiers_total"`
	UnitTotal      float64 `json:"unit_total"`
	Total          float64 `json:"total"`
}

// OrderEvent is published to Kafka after successful order writes.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     int       `json:"order_id"`
	OrderNo     string    `json:"order_no"`
	UserID      int       `json:"user_id"`
	Status      int       `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}
