package domain

import (
	"github.com/shopspring/decimal"
)

// CartStatus is the status tag the shop server returns for a cart mutation.
type CartStatus string

const (
	CartSuccess CartStatus = "success"
	CartRemoved CartStatus = "removed"
	CartError   CartStatus = "error"
)

// Succeeded reports whether the status tag is one the storefront treats as success.
// "removed" counts: decreasing the last unit deletes the line item.
func (s CartStatus) Succeeded() bool {
	return s == CartSuccess || s == CartRemoved
}

// CartAction is the quantity adjustment requested for a cart line item.
type CartAction string

const (
	ActionIncrease CartAction = "increase"
	ActionDecrease CartAction = "decrease"
)

// ParseCartAction validates a raw action tag.
func ParseCartAction(s string) (CartAction, bool) {
	switch CartAction(s) {
	case ActionIncrease, ActionDecrease:
		return CartAction(s), true
	}
	return "", false
}

// CartOutcome is the success payload of a cart mutation.
// Which optional fields are set depends on the operation.
type CartOutcome struct {
	Status      CartStatus
	Message     string
	ProductName string              // add
	Quantity    int                 // add
	NewQuantity int                 // adjust
	ItemTotal   decimal.NullDecimal // adjust
}
