package processor

import (
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v81"
)

// IsDuplicateTransfer reports whether the processor rejected a transfer
// because funds for its source transaction were already transferred. Callers
// treat this as success: the money moved exactly once.
//
// The structured error code is checked first; message inspection is kept as
// a compatibility shim for API versions that report the condition only in
// the human-readable message.
func IsDuplicateTransfer(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	if stripeErr.Type != stripe.ErrorTypeInvalidRequest {
		return false
	}
	if stripeErr.Code == "charge_already_transferred" {
		return true
	}
	return strings.Contains(strings.ToLower(stripeErr.Msg), "already been transferred")
}

// IsTransient reports whether the failure is worth the processor's webhook
// redelivery retrying: rate limits, server-side errors, and transport
// failures that never produced a structured response.
func IsTransient(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		// Timeouts, connection resets and cancellations surface here.
		return true
	}
	if stripeErr.Type == stripe.ErrorTypeAPI {
		return true
	}
	return stripeErr.HTTPStatusCode == http.StatusTooManyRequests ||
		stripeErr.HTTPStatusCode >= http.StatusInternalServerError
}

// IsAuthFailure reports whether the processor rejected our credentials. This
// is a configuration fault, not a request problem.
func IsAuthFailure(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusUnauthorized
}

// IsCardError reports a card decline during intent creation.
func IsCardError(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard
}

// IsInvalidRequest reports a permanent invalid-request rejection.
func IsInvalidRequest(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest
}
