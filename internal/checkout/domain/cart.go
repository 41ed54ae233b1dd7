package domain

import (
	"github.com/shopspring/decimal"
)

// CartItem is one line of a purchase request. ID carries the order document
// key so the settlement flow can recover it from the provider's customer
// metadata after payment.
type CartItem struct {
	Name         string          `json:"name"`
	ID           string          `json:"id"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int64           `json:"quantity"`
	RestaurantID string          `json:"restaurantId"`
}

// WalletTransaction is one line of a wallet top-up request.
type WalletTransaction struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

var minorUnitsPerUnit = decimal.NewFromInt(100)

// MinorUnits converts a decimal currency amount to integer minor units,
// rounding to the nearest cent.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitsPerUnit).Round(0).IntPart()
}

// Valid requires the order id alongside name, price, and quantity: a line
// without an id could still be charged but never settled.
func (i CartItem) Valid() bool {
	return i.Name != "" && i.ID != "" && i.Price.IsPositive() && i.Quantity > 0
}

func (t WalletTransaction) Valid() bool {
	return t.Amount.IsPositive()
}
