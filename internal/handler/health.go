package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ursuslabs/connect-gateway/internal/processor"
	"github.com/ursuslabs/connect-gateway/internal/store"
)

type HealthHandler struct {
	client             processor.Client
	ledger             store.Ledger
	connectedAccountID string
}

func NewHealthHandler(client processor.Client, ledger store.Ledger, connectedAccountID string) *HealthHandler {
	return &HealthHandler{client: client, ledger: ledger, connectedAccountID: connectedAccountID}
}

// Health checks both dependencies the gateway cannot run without: Stripe
// (retrieves the connected account) and the settlement ledger.
func (h *HealthHandler) Health(c *gin.Context) {
	stripeConnected := h.client.Ping(c.Request.Context(), h.connectedAccountID) == nil
	ledgerConnected := h.ledger.Ping(c.Request.Context()) == nil

	if !stripeConnected || !ledgerConnected {
		detail := "Stripe connectivity issue"
		if stripeConnected {
			detail = "Ledger unavailable"
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":           "unhealthy",
			"error":            detail,
			"stripe_connected": stripeConnected,
			"ledger_connected": ledgerConnected,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"stripe_connected": true,
		"ledger_connected": true,
	})
}
