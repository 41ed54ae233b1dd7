package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fooddash/payment-service/internal/settlement/application"
	"github.com/fooddash/payment-service/internal/settlement/domain"
	"github.com/fooddash/payment-service/pkg/apperror"
	"github.com/fooddash/payment-service/pkg/tracing"
)

// maxBodyBytes caps webhook payloads; Stripe events are small.
const maxBodyBytes = int64(65536)

type WebhookHandler struct {
	log      *slog.Logger
	verifier application.EventVerifier
	dedup    application.Deduper
	service  *application.Service
	tracer   trace.Tracer
}

func NewWebhookHandler(log *slog.Logger, verifier application.EventVerifier, dedup application.Deduper, service *application.Service) *WebhookHandler {
	return &WebhookHandler{
		log:      log,
		verifier: verifier,
		dedup:    dedup,
		service:  service,
		tracer:   otel.Tracer("settlement-http"),
	}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhook", h.handleWebhook)
}

// handleWebhook verifies, classifies, and dispatches a provider event.
// Verification runs over the raw body: parsing before verifying would break
// the signature. The response is 200 for anything handled or benignly
// ignored; 400/404 signal the provider that the event needs investigation
// rather than blind retry.
func (h *WebhookHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleWebhook")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error("webhook body read failed", "err", err)
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log.Error("webhook signature rejected", "err", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	key := h.dedup.Key("stripe", event.ID)
	seen, err := h.dedup.Seen(ctx, key)
	if err != nil {
		// Dedup store down: settlement itself is idempotent, keep going.
		h.log.Error("dedup check failed", "event_id", event.ID, "err", err)
	} else if seen {
		h.log.Info("duplicate event skipped", "event_id", event.ID, "type", event.RawType)
		w.WriteHeader(http.StatusOK)
		return
	}

	switch event.Kind {
	case domain.EventPaymentIntentSucceeded:
		// Observability only. Settlement keys off checkout completion.
		h.log.Info("payment intent succeeded", "event_id", event.ID)

	case domain.EventCheckoutCompleted:
		h.log.Info("checkout session completed", "event_id", event.ID, "customer_id", event.CustomerID)
		if err := h.service.Settle(ctx, event.CustomerID, tracing.Traceparent(ctx)); err != nil {
			// Not marked: the delivery did not reach a terminal outcome, so
			// the provider's retry (after a 500) or investigation (400/404)
			// gets a full re-run instead of a duplicate skip.
			h.log.Error("settlement failed", "event_id", event.ID, "err", err)
			http.Error(w, err.Error(), apperror.StatusOf(err))
			return
		}

	default:
		h.log.Info("unhandled event type", "event_id", event.ID, "type", event.RawType)
	}

	if err := h.dedup.Mark(ctx, key); err != nil {
		h.log.Error("dedup mark failed", "event_id", event.ID, "err", err)
	}
	w.WriteHeader(http.StatusOK)
}
