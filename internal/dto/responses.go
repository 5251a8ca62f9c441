package dto

import "github.com/ursuslabs/connect-gateway/internal/fees"

type CreateIntentResponse struct {
	ClientSecret    string         `json:"client_secret"`
	PaymentIntentID string         `json:"payment_intent_id"`
	Amount          int64          `json:"amount"`
	FeeBreakdown    fees.Breakdown `json:"fee_breakdown"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
