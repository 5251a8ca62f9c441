package webhook

import (
	"encoding/json"

	"github.com/stripe/stripe-go/v81"
)

// Action is what the dispatcher should do with a verified event.
type Action int

const (
	// ActionIgnore drops the event with no side effect.
	ActionIgnore Action = iota

	// ActionSettle settles the charge carried in the event payload.
	ActionSettle

	// ActionReconcileSettle settles after re-fetching the authoritative
	// charge from the processor (capture events can race the processor's own
	// state convergence).
	ActionReconcileSettle

	// ActionResolveIntent resolves a payment intent to its underlying charge
	// before settling.
	ActionResolveIntent

	// ActionRecordRefund emits a refund audit record; no money moves.
	ActionRecordRefund
)

func (a Action) String() string {
	switch a {
	case ActionSettle:
		return "settle"
	case ActionReconcileSettle:
		return "reconcile-settle"
	case ActionResolveIntent:
		return "resolve-intent"
	case ActionRecordRefund:
		return "record-refund"
	default:
		return "ignore"
	}
}

// Classification is the outcome of mapping an event onto the handled
// vocabulary. Charge is set for charge.* events, ChargeID for the intent
// path, Reason only when the event is ignored.
type Classification struct {
	Action   Action
	Charge   *stripe.Charge
	ChargeID string
	Reason   string
}

func ignore(reason string) Classification {
	return Classification{Action: ActionIgnore, Reason: reason}
}

// Classify maps a verified event to an action. Unrecognized event types and
// payloads whose shape does not match the expected object are ignored rather
// than speculatively processed.
func Classify(event stripe.Event) Classification {
	if event.Data == nil {
		return ignore("event has no payload object")
	}

	switch event.Type {
	case stripe.EventTypeChargeSucceeded:
		charge, ok := parseCharge(event)
		if !ok {
			return ignore("malformed charge object")
		}
		if !charge.Captured {
			return ignore("charge not captured yet")
		}
		return Classification{Action: ActionSettle, Charge: charge, ChargeID: charge.ID}

	case stripe.EventTypeChargeCaptured:
		charge, ok := parseCharge(event)
		if !ok {
			return ignore("malformed charge object")
		}
		return Classification{Action: ActionReconcileSettle, Charge: charge, ChargeID: charge.ID}

	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil || intent.ID == "" {
			return ignore("malformed payment intent object")
		}
		if intent.LatestCharge == nil || intent.LatestCharge.ID == "" {
			return ignore("payment intent has no charge")
		}
		return Classification{Action: ActionResolveIntent, ChargeID: intent.LatestCharge.ID}

	case stripe.EventTypeChargeRefunded:
		charge, ok := parseCharge(event)
		if !ok {
			return ignore("malformed charge object")
		}
		return Classification{Action: ActionRecordRefund, Charge: charge, ChargeID: charge.ID}

	default:
		return ignore("unhandled event type")
	}
}

func parseCharge(event stripe.Event) (*stripe.Charge, bool) {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil || charge.ID == "" {
		return nil, false
	}
	return &charge, true
}
