package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stripe/stripe-go/v81"

	"github.com/ursuslabs/connect-gateway/internal/processor"
)

type mockProcessor struct {
	mu sync.Mutex

	transfers    []processor.TransferRequest
	transferErrs []error

	charges     map[string]*stripe.Charge
	retrieveErr error

	intents   []processor.IntentRequest
	intentErr error
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{charges: make(map[string]*stripe.Charge)}
}

func (m *mockProcessor) failTransfersWith(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transferErrs = append(m.transferErrs, errs...)
}

func (m *mockProcessor) transferCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transfers)
}

func (m *mockProcessor) CreateTransfer(_ context.Context, req processor.TransferRequest) (*stripe.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.transferErrs) > 0 {
		err := m.transferErrs[0]
		m.transferErrs = m.transferErrs[1:]
		return nil, err
	}
	m.transfers = append(m.transfers, req)
	return &stripe.Transfer{ID: "tr_" + req.ChargeID}, nil
}

func (m *mockProcessor) RetrieveCharge(_ context.Context, chargeID string) (*stripe.Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.retrieveErr != nil {
		return nil, m.retrieveErr
	}
	charge, ok := m.charges[chargeID]
	if !ok {
		return nil, &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "No such charge: " + chargeID}
	}
	return charge, nil
}

func (m *mockProcessor) CreateIntent(_ context.Context, req processor.IntentRequest) (*stripe.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intentErr != nil {
		return nil, m.intentErr
	}
	m.intents = append(m.intents, req)
	return &stripe.PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (m *mockProcessor) Ping(context.Context, string) error { return nil }

func chargeEvent(eventType stripe.EventType, chargeID string, amount int64, captured bool) stripe.Event {
	raw := fmt.Sprintf(`{"id":%q,"amount":%d,"captured":%t}`, chargeID, amount, captured)
	return stripe.Event{
		ID:   "evt_" + chargeID,
		Type: eventType,
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func refundEvent(chargeID string, amount, refunded int64) stripe.Event {
	raw := fmt.Sprintf(`{"id":%q,"amount":%d,"captured":true,"amount_refunded":%d}`, chargeID, amount, refunded)
	return stripe.Event{
		ID:   "evt_refund_" + chargeID,
		Type: stripe.EventTypeChargeRefunded,
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func intentEvent(intentID, chargeID string) stripe.Event {
	raw := fmt.Sprintf(`{"id":%q,"latest_charge":{"id":%q}}`, intentID, chargeID)
	return stripe.Event{
		ID:   "evt_" + intentID,
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}
