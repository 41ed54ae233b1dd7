package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddash/payment-service/internal/payout/application"
	"github.com/fooddash/payment-service/pkg/apperror"
)

type fakeDirectory struct {
	customerID string
	err        error
}

func (f *fakeDirectory) FindCustomerByUser(_ context.Context, _ string) (string, error) {
	return f.customerID, f.err
}

type fakePayouts struct {
	payout Payout
	calls  int
}

type Payout = application.Payout

func (f *fakePayouts) CreatePayout(_ context.Context, amount int64, currency, _ string) (Payout, error) {
	f.calls++
	p := f.payout
	p.Amount = amount
	p.Currency = currency
	return p, nil
}

func newTestRouter(directory application.CustomerDirectory, provider application.PayoutProvider) http.Handler {
	svc := application.NewService(directory, provider)
	h := NewHandler(slog.New(slog.DiscardHandler), svc)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestCreatePayoutEndpoint(t *testing.T) {
	provider := &fakePayouts{payout: Payout{ID: "po_1", Status: "pending"}}
	r := newTestRouter(&fakeDirectory{customerID: "cus_1"}, provider)

	body := `{"amount":12.34,"currency":"usd","paymentMethodId":"pm_1","userId":"u1"}`
	req := httptest.NewRequest(http.MethodPost, "/create-payout", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payout created successfully")
	assert.Contains(t, w.Body.String(), `"po_1"`)
	assert.Equal(t, 1, provider.calls)
}

func TestCreatePayoutUnknownCustomer(t *testing.T) {
	directory := &fakeDirectory{err: apperror.New(apperror.KindNotFound, "stripe.FindCustomerByUser", "no customer")}
	provider := &fakePayouts{}
	r := newTestRouter(directory, provider)

	body := `{"amount":12.34,"currency":"usd","paymentMethodId":"pm_1","userId":"u1"}`
	req := httptest.NewRequest(http.MethodPost, "/create-payout", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Customer not found")
	assert.Zero(t, provider.calls)
}

func TestCreatePayoutInvalidAmount(t *testing.T) {
	r := newTestRouter(&fakeDirectory{customerID: "cus_1"}, &fakePayouts{})

	body := `{"amount":-1,"currency":"usd","paymentMethodId":"pm_1","userId":"u1"}`
	req := httptest.NewRequest(http.MethodPost, "/create-payout", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
