package service

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v81"
	"golang.org/x/sync/singleflight"

	"github.com/ursuslabs/connect-gateway/internal/fees"
	"github.com/ursuslabs/connect-gateway/internal/model"
	"github.com/ursuslabs/connect-gateway/internal/processor"
	"github.com/ursuslabs/connect-gateway/internal/store"
	"github.com/ursuslabs/connect-gateway/internal/webhook"
)

// Outcome of dispatching one verified event.
type Outcome int

const (
	// OutcomeIgnored means the event required no action.
	OutcomeIgnored Outcome = iota

	// OutcomeSettled means a transfer was created and recorded.
	OutcomeSettled

	// OutcomeAlreadySettled means the charge had settled before, locally or
	// at the processor. No funds moved on this delivery.
	OutcomeAlreadySettled

	// OutcomeRefundRecorded means a refund audit entry was written.
	OutcomeRefundRecorded

	// OutcomeRetryable means settlement hit a transient failure and nothing
	// was recorded; the processor's redelivery will reattempt.
	OutcomeRetryable

	// OutcomeFailed means a permanent failure that needs manual
	// intervention. The charge stays unrecorded but is never auto-retried.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeAlreadySettled:
		return "already-settled"
	case OutcomeRefundRecorded:
		return "refund-recorded"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// Dispatcher drives a charge from Unseen through Settling to Settled. The
// ledger membership check runs before any external call, and concurrent
// deliveries of the same charge id collapse onto one in-flight settlement.
type Dispatcher struct {
	ledger store.Ledger
	client processor.Client
	calc   *fees.Calculator

	connectedAccountID string
	platformName       string
	connectedName      string

	inflight singleflight.Group
}

func NewDispatcher(ledger store.Ledger, client processor.Client, calc *fees.Calculator, connectedAccountID, platformName, connectedName string) *Dispatcher {
	return &Dispatcher{
		ledger:             ledger,
		client:             client,
		calc:               calc,
		connectedAccountID: connectedAccountID,
		platformName:       platformName,
		connectedName:      connectedName,
	}
}

// Dispatch classifies the verified event and performs the resulting action.
func (d *Dispatcher) Dispatch(ctx context.Context, event stripe.Event) (Outcome, error) {
	cls := webhook.Classify(event)

	switch cls.Action {
	case webhook.ActionSettle:
		return d.settle(ctx, cls.Charge)

	case webhook.ActionReconcileSettle, webhook.ActionResolveIntent:
		// Capture and intent events can outrun the processor's own state, so
		// re-fetch the authoritative charge before computing the split.
		charge, err := d.client.RetrieveCharge(ctx, cls.ChargeID)
		if err != nil {
			if processor.IsTransient(err) {
				return OutcomeRetryable, err
			}
			log.Error().Err(err).Str("charge_id", cls.ChargeID).Msg("charge retrieval failed")
			return OutcomeFailed, err
		}
		if !charge.Captured {
			log.Info().Str("charge_id", charge.ID).Msg("skipping uncaptured charge")
			return OutcomeIgnored, nil
		}
		return d.settle(ctx, charge)

	case webhook.ActionRecordRefund:
		return d.recordRefund(ctx, cls.Charge)

	default:
		log.Debug().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Str("reason", cls.Reason).
			Msg("event ignored")
		return OutcomeIgnored, nil
	}
}

func (d *Dispatcher) settle(ctx context.Context, charge *stripe.Charge) (Outcome, error) {
	type result struct {
		outcome Outcome
		err     error
	}
	v, _, _ := d.inflight.Do(charge.ID, func() (interface{}, error) {
		outcome, err := d.settleOnce(ctx, charge)
		return result{outcome, err}, nil
	})
	r := v.(result)
	return r.outcome, r.err
}

func (d *Dispatcher) settleOnce(ctx context.Context, charge *stripe.Charge) (Outcome, error) {
	settled, err := d.ledger.IsSettled(ctx, charge.ID)
	if err != nil {
		return OutcomeRetryable, err
	}
	if settled {
		log.Info().Str("charge_id", charge.ID).Msg("charge already settled, skipping")
		return OutcomeAlreadySettled, nil
	}

	breakdown, err := d.calc.Compute(charge.Amount)
	if err != nil {
		log.Error().Err(err).Str("charge_id", charge.ID).Int64("amount", charge.Amount).
			Msg("fee computation failed")
		return OutcomeFailed, err
	}

	log.Info().
		Str("charge_id", charge.ID).
		Int64("gross", charge.Amount).
		Int64("stripe_fee", breakdown.StripeFee).
		Int64("platform_commission", breakdown.PlatformCommission).
		Int64("transfer_amount", breakdown.TransferAmount).
		Msg("settling charge")

	transfer, err := d.client.CreateTransfer(ctx, processor.TransferRequest{
		ChargeID:    charge.ID,
		Amount:      breakdown.TransferAmount,
		Destination: d.connectedAccountID,
		Metadata: map[string]string{
			"initiated_by":        "connect-gateway",
			"platform":            d.platformName,
			"connected":           d.connectedName,
			"original_amount":     strconv.FormatInt(charge.Amount, 10),
			"stripe_fee":          strconv.FormatInt(breakdown.StripeFee, 10),
			"platform_commission": strconv.FormatInt(breakdown.PlatformCommission, 10),
		},
	})

	switch {
	case err == nil:
		return d.markSettled(ctx, charge, breakdown, transfer.ID, OutcomeSettled)

	case processor.IsDuplicateTransfer(err):
		// The processor already holds a transfer for this charge. Record the
		// charge and move on; no new funds moved.
		log.Warn().Str("charge_id", charge.ID).Msg("transfer already exists at processor")
		return d.markSettled(ctx, charge, breakdown, "", OutcomeAlreadySettled)

	case processor.IsAuthFailure(err):
		// Fatal-level without exiting: every settlement is failing until an
		// operator rotates the key, but the server must keep acknowledging.
		log.WithLevel(zerolog.FatalLevel).Err(err).Str("charge_id", charge.ID).
			Msg("processor authentication failed - check API keys")
		return OutcomeFailed, err

	case processor.IsTransient(err):
		// Nothing recorded; redelivery of the event reattempts settlement.
		log.Warn().Err(err).Str("charge_id", charge.ID).Msg("transient transfer failure")
		return OutcomeRetryable, err

	default:
		log.Error().Err(err).Str("charge_id", charge.ID).
			Msg("transfer rejected, manual intervention required")
		return OutcomeFailed, err
	}
}

func (d *Dispatcher) markSettled(ctx context.Context, charge *stripe.Charge, breakdown fees.Breakdown, transferID string, outcome Outcome) (Outcome, error) {
	created, err := d.ledger.MarkSettled(ctx, model.Settlement{
		ChargeID:           charge.ID,
		TransferID:         transferID,
		GrossAmount:        charge.Amount,
		StripeFee:          breakdown.StripeFee,
		PlatformCommission: breakdown.PlatformCommission,
		TransferAmount:     breakdown.TransferAmount,
	})
	if err != nil {
		// The transfer exists at the processor but the local record did not
		// land. Redelivery resolves to "already exists" there and retries
		// this write.
		log.Error().Err(err).Str("charge_id", charge.ID).Msg("failed to record settlement")
		return OutcomeRetryable, err
	}
	if !created {
		return OutcomeAlreadySettled, nil
	}
	if transferID != "" {
		log.Info().
			Str("charge_id", charge.ID).
			Str("transfer_id", transferID).
			Int64("amount", breakdown.TransferAmount).
			Str("destination", d.connectedName).
			Msg("transfer completed")
	}
	return outcome, nil
}

func (d *Dispatcher) recordRefund(ctx context.Context, charge *stripe.Charge) (Outcome, error) {
	if charge.AmountRefunded == 0 {
		log.Warn().Str("charge_id", charge.ID).Msg("refund event with zero amount_refunded")
		return OutcomeIgnored, nil
	}

	// Recompute what the original split was, for the audit trail only. The
	// transfer to the connected account is never reversed; the platform
	// absorbs the refund as merchant of record.
	var originalTransfer int64
	if breakdown, err := d.calc.Compute(charge.Amount); err == nil {
		originalTransfer = breakdown.TransferAmount
	}

	if err := d.ledger.RecordRefund(ctx, model.RefundAudit{
		ChargeID:         charge.ID,
		AmountRefunded:   charge.AmountRefunded,
		OriginalGross:    charge.Amount,
		OriginalTransfer: originalTransfer,
	}); err != nil {
		return OutcomeRetryable, err
	}

	log.Info().
		Str("charge_id", charge.ID).
		Int64("amount_refunded", charge.AmountRefunded).
		Int64("original_transfer", originalTransfer).
		Str("absorbed_by", d.platformName).
		Msg("refund recorded, connected account funds retained")

	return OutcomeRefundRecorded, nil
}
