package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fooddash/payment-service/internal/payout/application"
	"github.com/fooddash/payment-service/pkg/apperror"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("payout-http"),
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/create-payout", h.createPayout)
}

func (h *Handler) createPayout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePayout")
	defer span.End()

	var req application.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Issue(ctx, req)
	if err != nil {
		h.log.Error("payout failed", "user_id", req.UserID, "err", err)
		msg := err.Error()
		if apperror.KindOf(err) == apperror.KindNotFound {
			msg = "Customer not found"
		}
		http.Error(w, msg, apperror.StatusOf(err))
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "Payout created successfully",
		"payout":  p,
	})
}
