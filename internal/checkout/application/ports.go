package application

import "context"

// LineItem is the provider-neutral shape of one checkout session line.
// UnitAmount is in integer minor units.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
	Metadata    map[string]string
}

// PaymentProvider creates the remote customer and the hosted checkout
// session. Implemented by the stripe adapter.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, metadata map[string]string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID string, items []LineItem) (string, error)
}
