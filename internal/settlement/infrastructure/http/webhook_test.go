package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fooddash/payment-service/internal/settlement/application"
	"github.com/fooddash/payment-service/internal/settlement/domain"
	"github.com/fooddash/payment-service/pkg/apperror"
)

type fakeVerifier struct {
	event domain.WebhookEvent
	err   error
}

func (f *fakeVerifier) Verify(_ []byte, _ string) (domain.WebhookEvent, error) {
	return f.event, f.err
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) Key(provider, eventID string) string { return provider + ":" + eventID }

func (f *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	return f.seen[key], nil
}

func (f *fakeDeduper) Mark(_ context.Context, key string) error {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[key] = true
	return nil
}

type recordingStore struct {
	order    domain.Order
	settled  int
	failures int
}

func (s *recordingStore) GetOrder(_ context.Context, id primitive.ObjectID) (domain.Order, error) {
	if id != s.order.ID {
		return domain.Order{}, apperror.New(apperror.KindNotFound, "store.GetOrder", id.Hex())
	}
	return s.order, nil
}

func (s *recordingStore) SettleWithOutbox(_ context.Context, id primitive.ObjectID, _ string, _ []byte, _ map[string]string, _ string) (domain.Order, error) {
	if s.failures > 0 {
		s.failures--
		return domain.Order{}, errors.New("mongo unavailable")
	}
	s.settled++
	o := s.order
	o.PaymentStatus = domain.StatusCompleted
	return o, nil
}

func (s *recordingStore) GetUser(_ context.Context, id primitive.ObjectID) (domain.User, error) {
	return domain.User{ID: id, FCM: "none"}, nil
}

func (s *recordingStore) GetFood(_ context.Context, id primitive.ObjectID) (domain.Food, error) {
	return domain.Food{ID: id}, nil
}

func (s *recordingStore) GetRestaurant(_ context.Context, id primitive.ObjectID) (domain.Restaurant, error) {
	return domain.Restaurant{ID: id}, nil
}

type staticCustomers struct {
	lines []domain.CartLine
	ok    bool
}

func (s *staticCustomers) CustomerCart(_ context.Context, _ string) ([]domain.CartLine, bool, error) {
	return s.lines, s.ok, nil
}

type noopNotifier struct{}

func (noopNotifier) Send(_ context.Context, _, _, _ string, _ map[string]string) error { return nil }

func newTestHandler(t *testing.T, verifier application.EventVerifier, store application.OrderStore, customers application.CustomerSource) (*WebhookHandler, *fakeDeduper) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	svc := application.NewService(log, store, customers, noopNotifier{})
	dedup := &fakeDeduper{}
	return NewWebhookHandler(log, verifier, dedup, svc), dedup
}

func post(h *WebhookHandler, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	store := &recordingStore{order: domain.Order{ID: primitive.NewObjectID()}}
	verifier := &fakeVerifier{err: apperror.New(apperror.KindAuthenticity, "stripe.Verify", "bad signature")}
	h, _ := newTestHandler(t, verifier, store, &staticCustomers{})

	w := post(h, `{"type":"checkout.session.completed"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, store.settled)
}

func TestWebhookSettlesCompletedCheckout(t *testing.T) {
	orderID := primitive.NewObjectID()
	store := &recordingStore{order: domain.Order{ID: orderID, PaymentStatus: domain.StatusPending}}
	verifier := &fakeVerifier{event: domain.WebhookEvent{
		ID:         "evt_1",
		Kind:       domain.EventCheckoutCompleted,
		RawType:    "checkout.session.completed",
		CustomerID: "cus_1",
	}}
	customers := &staticCustomers{ok: true, lines: []domain.CartLine{{ID: orderID.Hex(), Name: "Burger"}}}
	h, _ := newTestHandler(t, verifier, store, customers)

	w := post(h, `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.settled)
}

func TestWebhookDeduplicatesByEventID(t *testing.T) {
	orderID := primitive.NewObjectID()
	store := &recordingStore{order: domain.Order{ID: orderID}}
	verifier := &fakeVerifier{event: domain.WebhookEvent{
		ID:         "evt_dup",
		Kind:       domain.EventCheckoutCompleted,
		CustomerID: "cus_1",
	}}
	customers := &staticCustomers{ok: true, lines: []domain.CartLine{{ID: orderID.Hex()}}}
	h, _ := newTestHandler(t, verifier, store, customers)

	first := post(h, `{}`)
	second := post(h, `{}`)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, store.settled, "redelivery must not settle twice")
}

func TestWebhookUnknownOrderIs404(t *testing.T) {
	store := &recordingStore{order: domain.Order{ID: primitive.NewObjectID()}}
	verifier := &fakeVerifier{event: domain.WebhookEvent{
		ID:         "evt_2",
		Kind:       domain.EventCheckoutCompleted,
		CustomerID: "cus_1",
	}}
	customers := &staticCustomers{ok: true, lines: []domain.CartLine{{ID: primitive.NewObjectID().Hex()}}}
	h, _ := newTestHandler(t, verifier, store, customers)

	w := post(h, `{}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, store.settled)

	// The withheld ack must survive redelivery: the event id is not marked
	// as processed, so the retry gets the same 404, not a duplicate skip.
	retry := post(h, `{}`)
	assert.Equal(t, http.StatusNotFound, retry.Code)
}

func TestWebhookRetryAfterTransientFailureSettles(t *testing.T) {
	orderID := primitive.NewObjectID()
	store := &recordingStore{
		order:    domain.Order{ID: orderID, PaymentStatus: domain.StatusPending},
		failures: 1,
	}
	verifier := &fakeVerifier{event: domain.WebhookEvent{
		ID:         "evt_retry",
		Kind:       domain.EventCheckoutCompleted,
		CustomerID: "cus_1",
	}}
	customers := &staticCustomers{ok: true, lines: []domain.CartLine{{ID: orderID.Hex()}}}
	h, _ := newTestHandler(t, verifier, store, customers)

	first := post(h, `{}`)
	require.Equal(t, http.StatusInternalServerError, first.Code)
	require.Zero(t, store.settled)

	// Store recovered; the provider's redelivery of the same event id must
	// run the full settlement, not be skipped as a duplicate.
	retry := post(h, `{}`)
	assert.Equal(t, http.StatusOK, retry.Code)
	assert.Equal(t, 1, store.settled)

	// A further redelivery after success is the duplicate case.
	dup := post(h, `{}`)
	assert.Equal(t, http.StatusOK, dup.Code)
	assert.Equal(t, 1, store.settled)
}

func TestWebhookMalformedOrderIDIs400(t *testing.T) {
	store := &recordingStore{order: domain.Order{ID: primitive.NewObjectID()}}
	verifier := &fakeVerifier{event: domain.WebhookEvent{
		ID:         "evt_3",
		Kind:       domain.EventCheckoutCompleted,
		CustomerID: "cus_1",
	}}
	customers := &staticCustomers{ok: true, lines: []domain.CartLine{{ID: "not-hex"}}}
	h, _ := newTestHandler(t, verifier, store, customers)

	w := post(h, `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, store.settled)
}

func TestWebhookPaymentIntentSucceededIsInert(t *testing.T) {
	store := &recordingStore{order: domain.Order{ID: primitive.NewObjectID()}}
	verifier := &fakeVerifier{event: domain.WebhookEvent{
		ID:      "evt_4",
		Kind:    domain.EventPaymentIntentSucceeded,
		RawType: "payment_intent.succeeded",
	}}
	h, _ := newTestHandler(t, verifier, store, &staticCustomers{})

	w := post(h, `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, store.settled)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	store := &recordingStore{order: domain.Order{ID: primitive.NewObjectID()}}
	verifier := &fakeVerifier{event: domain.WebhookEvent{
		ID:      "evt_5",
		Kind:    domain.EventOther,
		RawType: "charge.refunded",
	}}
	h, _ := newTestHandler(t, verifier, store, &staticCustomers{})

	w := post(h, `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, store.settled)
}

func TestWebhookSessionWithoutCartIsAcknowledged(t *testing.T) {
	store := &recordingStore{order: domain.Order{ID: primitive.NewObjectID()}}
	verifier := &fakeVerifier{event: domain.WebhookEvent{
		ID:         "evt_6",
		Kind:       domain.EventCheckoutCompleted,
		CustomerID: "cus_topup",
	}}
	h, _ := newTestHandler(t, verifier, store, &staticCustomers{ok: false})

	w := post(h, `{}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, store.settled)
}
