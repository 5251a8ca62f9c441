package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v81"

	"github.com/ursuslabs/connect-gateway/internal/processor"
)

const testWebhookSecret = "whsec_handler_test"

type fakeProcessor struct {
	mu           sync.Mutex
	transfers    int
	transferErr  error
	intentErr    error
	pingErr      error
	lastIntent   processor.IntentRequest
	chargeByID   map[string]*stripe.Charge
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{chargeByID: make(map[string]*stripe.Charge)}
}

func (f *fakeProcessor) CreateTransfer(_ context.Context, req processor.TransferRequest) (*stripe.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	f.transfers++
	return &stripe.Transfer{ID: "tr_" + req.ChargeID}, nil
}

func (f *fakeProcessor) RetrieveCharge(_ context.Context, chargeID string) (*stripe.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if charge, ok := f.chargeByID[chargeID]; ok {
		return charge, nil
	}
	return nil, &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "No such charge: " + chargeID}
}

func (f *fakeProcessor) CreateIntent(_ context.Context, req processor.IntentRequest) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	f.lastIntent = req
	return &stripe.PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (f *fakeProcessor) Ping(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeProcessor) transferCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transfers
}

func signPayload(t *testing.T, payload []byte, at time.Time) string {
	t.Helper()
	ts := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func chargeEventPayload(eventType, chargeID string, amount int64, captured bool) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_%s","api_version":%q,"type":%q,"data":{"object":{"id":%q,"amount":%d,"captured":%t}}}`,
		chargeID, stripe.APIVersion, eventType, chargeID, amount, captured))
}
