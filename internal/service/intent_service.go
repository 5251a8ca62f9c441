package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/ursuslabs/connect-gateway/internal/dto"
	"github.com/ursuslabs/connect-gateway/internal/fees"
	"github.com/ursuslabs/connect-gateway/internal/processor"
)

const (
	maxOrderRefLen = 500
	maxEmailLen    = 200
)

// ValidationError is a caller-input rejection, always synchronous and never
// retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IntentResult is what the caller needs to complete the payment client-side,
// plus the prospective fee split attached to the intent for later audit.
type IntentResult struct {
	ClientSecret string
	IntentID     string
	Amount       int64
	Breakdown    fees.Breakdown
}

// IntentService creates payment intents on behalf of the platform account.
// The fee breakdown it embeds in intent metadata is descriptive only;
// settlement recomputes the split from the authoritative charge amount when
// the success event arrives.
type IntentService struct {
	client processor.Client
	calc   *fees.Calculator

	minAmount int64
	maxAmount int64
}

func NewIntentService(client processor.Client, calc *fees.Calculator, minAmount, maxAmount int64) *IntentService {
	return &IntentService{client: client, calc: calc, minAmount: minAmount, maxAmount: maxAmount}
}

func (s *IntentService) Create(ctx context.Context, req *dto.CreateIntentRequest) (*IntentResult, error) {
	if req.Amount < s.minAmount {
		return nil, &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("amount too small (minimum $%.2f)", float64(s.minAmount)/100),
		}
	}
	if req.Amount > s.maxAmount {
		return nil, &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("amount too large (maximum $%.2f)", float64(s.maxAmount)/100),
		}
	}

	breakdown, err := s.calc.Compute(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("compute fees: %w", err)
	}

	orderRef := SanitizeOrderRef(req.OrderID)
	if orderRef == "" {
		orderRef = "ORD-" + time.Now().UTC().Format("20060102150405")
	}

	email := truncateEmail(strings.TrimSpace(req.CustomerEmail))

	intent, err := s.client.CreateIntent(ctx, processor.IntentRequest{
		Amount:                    req.Amount,
		OrderRef:                  orderRef,
		ReceiptEmail:              email,
		StatementDescriptorSuffix: "GATEWAY",
		Metadata: map[string]string{
			"order_id":            orderRef,
			"source":              "connect-gateway",
			"stripe_fee":          strconv.FormatInt(breakdown.StripeFee, 10),
			"platform_commission": strconv.FormatInt(breakdown.PlatformCommission, 10),
			"transfer_amount":     strconv.FormatInt(breakdown.TransferAmount, 10),
		},
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("intent_id", intent.ID).
		Int64("amount", req.Amount).
		Str("order_id", orderRef).
		Msg("payment intent created")

	return &IntentResult{
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
		Amount:       req.Amount,
		Breakdown:    breakdown,
	}, nil
}

// truncateEmail bounds the receipt address to maxEmailLen bytes without
// splitting a multi-byte rune at the cut.
func truncateEmail(email string) string {
	if len(email) <= maxEmailLen {
		return email
	}
	cut := maxEmailLen
	for cut > 0 && !utf8.RuneStart(email[cut]) {
		cut--
	}
	return email[:cut]
}

// SanitizeOrderRef keeps alphanumerics, dashes and underscores and bounds
// the length, so the reference is safe to embed in metadata and idempotency
// keys.
func SanitizeOrderRef(ref string) string {
	var b strings.Builder
	for _, r := range ref {
		if b.Len() >= maxOrderRefLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
