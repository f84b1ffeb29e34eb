package handler

import (
	"errors"
	"io"
	"net/http"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Stripe recommends capping webhook bodies at 64KB.
const maxWebhookBytes = 65536

type BillingHandler struct {
	billing service.BillingService
	logger  zerolog.Logger
}

func NewBillingHandler(billing service.BillingService, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billing,
		logger:  logger.With().Str("handler", "BillingHandler").Logger(),
	}
}

func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/stripe/checkout", h.checkout)
	r.Post("/api/stripe/portal", h.portal)
}

// RegisterPublicRoutes mounts the provider's webhook, which is authenticated by signature.
func (h *BillingHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/api/stripe/webhook", h.webhook)
}

func (h *BillingHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var in service.CheckoutInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.billing.Checkout(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *BillingHandler) portal(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.billing.Portal(r.Context(), auth.FromContext(r.Context())))
}

func (h *BillingHandler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read webhook body")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large.")
			return
		}
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	err = h.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	case apperr.Is(err, apperr.ValidationFailed):
		writeError(w, http.StatusBadRequest, "Invalid signature.")
	default:
		// A 500 makes the provider redeliver the event.
		writeError(w, http.StatusInternalServerError, "Webhook handler failed.")
	}
}
