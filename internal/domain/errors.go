package domain

import (
	"errors"
	"fmt"
)

// Shared error taxonomy for order operations. These live in domain rather
// than service because authorization decisions are made inside repository
// transactions, against the status read there.
var (
	ErrNotFound  = errors.New("order not found")
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is reserved for stricter transition modes; the
	// current admin-override model never returns it.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// InvalidProductError names the cart line that referenced a missing product,
// so clients can highlight the offending line.
type InvalidProductError struct {
	ProductID int
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("product %d does not exist", e.ProductID)
}
