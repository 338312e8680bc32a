package domain

import "github.com/shopspring/decimal"

// CartItem is a product variant staged for a future order. The cart
// is cleared when an order is accepted.
type CartItem struct {
	AccountID   int64
	VariantID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Note        string
}
