// Package processor wraps the Stripe API behind the narrow surface the
// gateway needs: intent creation, charge retrieval, and transfer issuance.
package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// IntentRequest describes a payment intent to create on behalf of the
// platform account.
type IntentRequest struct {
	Amount                    int64
	OrderRef                  string
	ReceiptEmail              string
	StatementDescriptorSuffix string
	Metadata                  map[string]string
}

// TransferRequest describes a transfer of settled funds to the connected
// account. The idempotency token is derived from ChargeID alone, so retried
// requests for the same charge can never move funds twice.
type TransferRequest struct {
	ChargeID    string
	Amount      int64
	Destination string
	Metadata    map[string]string
}

// Client is the payment-processor surface the core calls. Implementations
// must honor the request context on every call.
type Client interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*stripe.PaymentIntent, error)
	RetrieveCharge(ctx context.Context, chargeID string) (*stripe.Charge, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*stripe.Transfer, error)
	Ping(ctx context.Context, accountID string) error
}

type stripeClient struct {
	api *client.API
}

// NewStripeClient builds a Client backed by the Stripe REST API.
func NewStripeClient(secretKey string) Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeClient{api: api}
}

func (c *stripeClient) CreateIntent(ctx context.Context, req IntentRequest) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.StatementDescriptorSuffix != "" {
		params.StatementDescriptorSuffix = stripe.String(req.StatementDescriptorSuffix)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(IntentIdempotencyKey(req.OrderRef, req.Amount))

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

func (c *stripeClient) RetrieveCharge(ctx context.Context, chargeID string) (*stripe.Charge, error) {
	charge, err := c.api.Charges.Get(chargeID, &stripe.ChargeParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve charge %s: %w", chargeID, err)
	}
	return charge, nil
}

func (c *stripeClient) CreateTransfer(ctx context.Context, req TransferRequest) (*stripe.Transfer, error) {
	params := &stripe.TransferParams{
		Params:            stripe.Params{Context: ctx},
		Amount:            stripe.Int64(req.Amount),
		Currency:          stripe.String(string(stripe.CurrencyUSD)),
		Destination:       stripe.String(req.Destination),
		SourceTransaction: stripe.String(req.ChargeID),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(TransferIdempotencyKey(req.ChargeID))

	transfer, err := c.api.Transfers.New(params)
	if err != nil {
		return nil, fmt.Errorf("create transfer for %s: %w", req.ChargeID, err)
	}
	return transfer, nil
}

func (c *stripeClient) Ping(ctx context.Context, accountID string) error {
	_, err := c.api.Accounts.GetByID(accountID, &stripe.AccountParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return fmt.Errorf("retrieve account %s: %w", accountID, err)
	}
	return nil
}

// TransferIdempotencyKey derives the idempotency token for a transfer from
// the charge id alone. Amount and time never participate, so redelivered
// events always present the same token to the processor.
func TransferIdempotencyKey(chargeID string) string {
	return "transfer_" + chargeID
}

// IntentIdempotencyKey derives the token for intent creation from the order
// reference and amount.
func IntentIdempotencyKey(orderRef string, amount int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", orderRef, amount)))
	return hex.EncodeToString(sum[:])[:24]
}
