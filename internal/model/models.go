package model

import (
	"time"
)

// Settlement records that a charge has produced exactly one transfer to the
// connected account. Presence of a charge id in the ledger is the idempotency
// guard; the remaining fields exist for reconciliation.
type Settlement struct {
	ChargeID           string    `json:"charge_id"`
	TransferID         string    `json:"transfer_id,omitempty"`
	GrossAmount        int64     `json:"gross_amount"`
	StripeFee          int64     `json:"stripe_fee"`
	PlatformCommission int64     `json:"platform_commission"`
	TransferAmount     int64     `json:"transfer_amount"`
	CreatedAt          time.Time `json:"created_at"`
}

// RefundAudit is a bookkeeping record for a refunded charge. The platform is
// merchant of record and absorbs the refund; the original transfer to the
// connected account is never reversed.
type RefundAudit struct {
	ChargeID         string    `json:"charge_id"`
	AmountRefunded   int64     `json:"amount_refunded"`
	OriginalGross    int64     `json:"original_gross"`
	OriginalTransfer int64     `json:"original_transfer"`
	CreatedAt        time.Time `json:"created_at"`
}
