package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ursuslabs/connect-gateway/internal/dto"
	"github.com/ursuslabs/connect-gateway/internal/processor"
	"github.com/ursuslabs/connect-gateway/internal/service"
)

type IntentHandler struct {
	svc *service.IntentService
}

func NewIntentHandler(svc *service.IntentService) *IntentHandler {
	return &IntentHandler{svc: svc}
}

func (h *IntentHandler) Create(c *gin.Context) {
	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "invalid request body: amount must be integer cents",
		})
		return
	}

	result, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		status, resp := mapIntentError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, dto.CreateIntentResponse{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.IntentID,
		Amount:          result.Amount,
		FeeBreakdown:    result.Breakdown,
	})
}

func mapIntentError(err error) (int, dto.ErrorResponse) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, dto.ErrorResponse{Error: ve.Message}
	}

	switch {
	case processor.IsCardError(err):
		return http.StatusBadRequest, dto.ErrorResponse{Error: "Card declined"}
	case processor.IsAuthFailure(err):
		log.WithLevel(zerolog.FatalLevel).Err(err).Msg("processor authentication failed - check API keys")
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "Payment service misconfigured"}
	case processor.IsTransient(err):
		return http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Service temporarily unavailable"}
	case processor.IsInvalidRequest(err):
		log.Error().Err(err).Msg("invalid intent request")
		return http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid payment request"}
	default:
		log.Error().Err(err).Msg("intent creation failed")
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "Payment processing failed"}
	}
}
