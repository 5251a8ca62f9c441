// Package webhook authenticates inbound Stripe notifications and maps them
// onto the closed set of event kinds the gateway settles on.
package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrBadSignature     = errors.New("invalid webhook signature")
	ErrStalePayload     = errors.New("webhook timestamp outside tolerance")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// Verifier checks the Stripe-Signature header against the shared signing
// secret. Verification always runs over the exact bytes received, never a
// re-serialized body.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: secret, tolerance: tolerance}
}

// Verify authenticates payload and returns the parsed event. The returned
// error wraps one of the package sentinel errors so callers can map it to a
// rejection without inspecting strings.
func (v *Verifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	if sigHeader == "" {
		return stripe.Event{}, ErrMissingSignature
	}

	event, err := stripewebhook.ConstructEventWithTolerance(payload, sigHeader, v.secret, v.tolerance)
	if err != nil {
		return stripe.Event{}, classifyVerifyError(err)
	}
	return event, nil
}

func classifyVerifyError(err error) error {
	switch {
	case errors.Is(err, stripewebhook.ErrNotSigned):
		return fmt.Errorf("%w: %v", ErrMissingSignature, err)
	case errors.Is(err, stripewebhook.ErrTooOld):
		return fmt.Errorf("%w: %v", ErrStalePayload, err)
	case errors.Is(err, stripewebhook.ErrNoValidSignature),
		errors.Is(err, stripewebhook.ErrInvalidHeader):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
}
