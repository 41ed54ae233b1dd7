package application

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fooddash/payment-service/internal/settlement/domain"
)

// EventVerifier authenticates a raw webhook payload against its signature
// header and maps it to a domain event. Implemented by the stripe adapter.
type EventVerifier interface {
	Verify(payload []byte, signature string) (domain.WebhookEvent, error)
}

// CustomerSource recovers the cart serialized into a provider customer's
// metadata at checkout time. A customer without a cart (e.g. a wallet
// top-up) yields ok=false with no error.
type CustomerSource interface {
	CustomerCart(ctx context.Context, customerID string) (lines []domain.CartLine, ok bool, err error)
}

// OrderStore is the document store backing settlement. SettleWithOutbox
// atomically flips the order's payment status and enqueues the settled
// event for the relay, returning the post-update document.
type OrderStore interface {
	GetOrder(ctx context.Context, id primitive.ObjectID) (domain.Order, error)
	SettleWithOutbox(ctx context.Context, id primitive.ObjectID, eventType string, payload []byte, headers map[string]string, traceparent string) (domain.Order, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (domain.User, error)
	GetFood(ctx context.Context, id primitive.ObjectID) (domain.Food, error)
	GetRestaurant(ctx context.Context, id primitive.ObjectID) (domain.Restaurant, error)
}

// Notifier delivers a push notification. Best effort: callers log and
// discard errors.
type Notifier interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Deduper remembers processed event ids across deliveries. Mark is called
// only after an event reaches a terminal outcome; a delivery that failed
// stays unseen so the provider's retry is handled again.
type Deduper interface {
	Key(provider, eventID string) string
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}
