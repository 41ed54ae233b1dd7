package domain

// EventKind is the closed set of provider webhook event types this service
// distinguishes. Anything else maps to EventOther and is acknowledged
// without action.
type EventKind int

const (
	EventOther EventKind = iota
	EventPaymentIntentSucceeded
	EventCheckoutCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventPaymentIntentSucceeded:
		return "payment_intent.succeeded"
	case EventCheckoutCompleted:
		return "checkout.session.completed"
	default:
		return "other"
	}
}

// WebhookEvent is the provider-neutral view of a verified webhook delivery.
type WebhookEvent struct {
	ID         string
	Kind       EventKind
	RawType    string
	CustomerID string
}

// CartLine mirrors the cart entry serialized into customer metadata at
// checkout time. ID holds the order document key.
type CartLine struct {
	Name         string  `json:"name"`
	ID           string  `json:"id"`
	Price        float64 `json:"price"`
	Quantity     int64   `json:"quantity"`
	RestaurantID string  `json:"restaurantId"`
}

// OrderSettled is published for the downstream driver-assignment workflow
// once an order's payment completes.
type OrderSettled struct {
	OrderID      string `json:"order_id"`
	UserID       string `json:"user_id"`
	RestaurantID string `json:"restaurant_id"`
	Status       string `json:"status"`
}
