package processor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v81"
)

func TestIsDuplicateTransfer(t *testing.T) {
	t.Run("structured code", func(t *testing.T) {
		err := &stripe.Error{
			Type: stripe.ErrorTypeInvalidRequest,
			Code: "charge_already_transferred",
		}
		assert.True(t, IsDuplicateTransfer(err))
	})

	t.Run("message shim", func(t *testing.T) {
		err := &stripe.Error{
			Type: stripe.ErrorTypeInvalidRequest,
			Msg:  "Charge ch_1 has already been transferred.",
		}
		assert.True(t, IsDuplicateTransfer(err))
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("create transfer for ch_1: %w", &stripe.Error{
			Type: stripe.ErrorTypeInvalidRequest,
			Msg:  "Charge ch_1 has already been transferred.",
		})
		assert.True(t, IsDuplicateTransfer(err))
	})

	t.Run("other invalid request is not a duplicate", func(t *testing.T) {
		err := &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "No such destination"}
		assert.False(t, IsDuplicateTransfer(err))
	})

	t.Run("non-stripe error", func(t *testing.T) {
		assert.False(t, IsDuplicateTransfer(errors.New("already been transferred")))
	})
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&stripe.Error{HTTPStatusCode: http.StatusTooManyRequests}))
	assert.True(t, IsTransient(&stripe.Error{Type: stripe.ErrorTypeAPI}))
	assert.True(t, IsTransient(&stripe.Error{HTTPStatusCode: http.StatusBadGateway}))
	assert.True(t, IsTransient(errors.New("dial tcp: i/o timeout")))
	assert.True(t, IsTransient(context.DeadlineExceeded))

	assert.False(t, IsTransient(&stripe.Error{
		Type:           stripe.ErrorTypeInvalidRequest,
		HTTPStatusCode: http.StatusBadRequest,
	}))
	assert.False(t, IsTransient(&stripe.Error{HTTPStatusCode: http.StatusUnauthorized}))
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, IsAuthFailure(&stripe.Error{HTTPStatusCode: http.StatusUnauthorized}))
	assert.False(t, IsAuthFailure(&stripe.Error{HTTPStatusCode: http.StatusBadRequest}))
	assert.False(t, IsAuthFailure(errors.New("unauthorized")))
}

func TestIdempotencyKeys(t *testing.T) {
	assert.Equal(t, "transfer_ch_123", TransferIdempotencyKey("ch_123"))

	key := IntentIdempotencyKey("order-42", 10000)
	assert.Len(t, key, 24)
	assert.Equal(t, key, IntentIdempotencyKey("order-42", 10000), "key must be deterministic")
	assert.NotEqual(t, key, IntentIdempotencyKey("order-42", 10001))
	assert.NotEqual(t, key, IntentIdempotencyKey("order-43", 10000))
}
