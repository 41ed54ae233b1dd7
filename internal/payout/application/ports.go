package application

import (
	"context"

	"github.com/shopspring/decimal"
)

// Payout is the provider-neutral result of a payout request.
type Payout struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CustomerDirectory finds the provider customer tagged with a platform
// user id. Exactly one match is required; zero and many are distinct
// failures.
type CustomerDirectory interface {
	FindCustomerByUser(ctx context.Context, userID string) (customerID string, err error)
}

// PayoutProvider issues the payout. Amount is in integer minor units.
type PayoutProvider interface {
	CreatePayout(ctx context.Context, amount int64, currency, destination string) (Payout, error)
}

// Request carries the payout parameters from the HTTP surface.
type Request struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentMethodID string          `json:"paymentMethodId"`
	UserID          string          `json:"userId"`
}
