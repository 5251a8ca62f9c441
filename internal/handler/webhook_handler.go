package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ursuslabs/connect-gateway/internal/middleware"
	"github.com/ursuslabs/connect-gateway/internal/service"
	"github.com/ursuslabs/connect-gateway/internal/webhook"
)

const (
	maxWebhookBody  = 1 << 20
	dispatchTimeout = 30 * time.Second
)

type WebhookHandler struct {
	verifier   *webhook.Verifier
	dispatcher *service.Dispatcher
}

func NewWebhookHandler(verifier *webhook.Verifier, dispatcher *service.Dispatcher) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, dispatcher: dispatcher}
}

// Handle verifies, classifies and dispatches one notification. The response
// is a terse acknowledgment: 4xx tells the processor the event is
// unprocessable, 5xx asks it to redeliver, 2xx accepts regardless of
// settlement outcome.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("webhook rejected")
		switch {
		case errors.Is(err, webhook.ErrMissingSignature):
			c.String(http.StatusBadRequest, "Missing signature")
		case errors.Is(err, webhook.ErrBadSignature), errors.Is(err, webhook.ErrStalePayload):
			c.String(http.StatusBadRequest, "Invalid signature")
		default:
			c.String(http.StatusBadRequest, "Invalid payload")
		}
		return
	}

	c.Set(middleware.EventIDKey, event.ID)
	c.Set(middleware.EventTypeKey, string(event.Type))

	ctx, cancel := context.WithTimeout(c.Request.Context(), dispatchTimeout)
	defer cancel()

	outcome, err := h.dispatcher.Dispatch(ctx, event)
	c.Set(middleware.OutcomeKey, outcome.String())
	if outcome == service.OutcomeRetryable {
		// Non-2xx makes the processor redeliver; local idempotency makes the
		// reattempt safe.
		log.Warn().Err(err).Str("event_id", event.ID).Msg("settlement deferred to redelivery")
		c.String(http.StatusInternalServerError, "Temporary failure")
		return
	}

	c.String(http.StatusOK, "OK")
}
