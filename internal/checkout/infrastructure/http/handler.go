package http

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fooddash/payment-service/internal/checkout/application"
	"github.com/fooddash/payment-service/internal/checkout/domain"
	"github.com/fooddash/payment-service/pkg/apperror"
)

//go:embed pages/checkout-success.html
var checkoutSuccessPage []byte

//go:embed pages/cancel.html
var checkoutCancelPage []byte

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("checkout-http"),
	}
}

type cartSessionReq struct {
	UserID    string            `json:"userId"`
	CartItems []domain.CartItem `json:"cartItems"`
}

type topUpReq struct {
	UserID             string                     `json:"userId"`
	WalletTransactions []domain.WalletTransaction `json:"walletTransactions"`
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/create-checkout-session", h.createCheckoutSession)
	r.Post("/topup-wallet", h.topUpWallet)
	r.Get("/checkout-success", servePage(checkoutSuccessPage))
	r.Get("/cancel", servePage(checkoutCancelPage))
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateCheckoutSession")
	defer span.End()

	var req cartSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	url, err := h.service.CreateCartSession(ctx, req.UserID, req.CartItems)
	if err != nil {
		h.log.Error("create checkout session failed", "user_id", req.UserID, "err", err)
		http.Error(w, err.Error(), apperror.StatusOf(err))
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func (h *Handler) topUpWallet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TopUpWallet")
	defer span.End()

	var req topUpReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	url, err := h.service.CreateTopUpSession(ctx, req.UserID, req.WalletTransactions)
	if err != nil {
		h.log.Error("top-up session failed", "user_id", req.UserID, "err", err)
		http.Error(w, err.Error(), apperror.StatusOf(err))
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func servePage(page []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}
