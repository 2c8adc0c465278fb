package model

import "github.com/shopspring/decimal"

// OrderLine is a single position of a finalized order.
type OrderLine struct {
	ProductID  int64
	CategoryID *int64
	Quantity   int64
	UnitPrice  decimal.Decimal
}

// OrderSnapshot carries everything accrual needs to know about an order.
type OrderSnapshot struct {
	UserID   int64
	OrderID  int64
	Subtotal decimal.Decimal
	Lines    []OrderLine
}
