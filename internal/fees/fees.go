// Package fees computes the split of a gross charge amount between the
// payment processor's fee, the platform commission, and the amount
// transferred to the connected account. All arithmetic is integer
// minor-currency units; percentage rates are basis points.
package fees

import (
	"errors"
	"fmt"
)

var (
	// ErrAmountTooSmall means the processing fee exceeds the gross amount,
	// which would produce a negative transfer.
	ErrAmountTooSmall = errors.New("amount too small to cover processing fees")

	// ErrBreakdownMismatch means a computed breakdown does not reconcile to
	// the gross amount. It indicates a bug, never a caller mistake.
	ErrBreakdownMismatch = errors.New("fee breakdown does not sum to gross amount")
)

const bpsDenominator = 10000

// Breakdown is the exact split of a gross amount in minor units.
// StripeFee + PlatformCommission + TransferAmount == gross for every
// breakdown produced by Calculator.Compute.
type Breakdown struct {
	StripeFee          int64 `json:"stripe_fee"`
	PlatformCommission int64 `json:"platform_commission"`
	TransferAmount     int64 `json:"transfer_amount"`
	NetAfterFee        int64 `json:"net_after_fee"`
}

type Calculator struct {
	feePercentBPS int64
	feeFixed      int64
	commissionBPS int64
}

// NewCalculator builds a calculator from basis-point rates, e.g. 290 bps
// variable fee, 30 cents fixed, 100 bps commission for the standard
// 2.9% + $0.30 / 1% configuration.
func NewCalculator(feePercentBPS, feeFixed, commissionBPS int64) *Calculator {
	return &Calculator{
		feePercentBPS: feePercentBPS,
		feeFixed:      feeFixed,
		commissionBPS: commissionBPS,
	}
}

// Compute splits gross into processing fee, platform commission and transfer
// amount. Truncating division on both percentage steps leaves every rounding
// remainder in the transfer amount, so the components always sum back to
// gross exactly.
func (c *Calculator) Compute(gross int64) (Breakdown, error) {
	if gross <= 0 {
		return Breakdown{}, fmt.Errorf("%w: gross %d", ErrAmountTooSmall, gross)
	}

	variableFee := gross * c.feePercentBPS / bpsDenominator
	stripeFee := variableFee + c.feeFixed

	netAfterFee := gross - stripeFee
	if netAfterFee < 0 {
		return Breakdown{}, fmt.Errorf("%w: gross %d, fee %d", ErrAmountTooSmall, gross, stripeFee)
	}

	commission := netAfterFee * c.commissionBPS / bpsDenominator
	transfer := netAfterFee - commission

	b := Breakdown{
		StripeFee:          stripeFee,
		PlatformCommission: commission,
		TransferAmount:     transfer,
		NetAfterFee:        netAfterFee,
	}

	if stripeFee+commission+transfer != gross {
		return Breakdown{}, fmt.Errorf("%w: gross %d, got %d+%d+%d",
			ErrBreakdownMismatch, gross, stripeFee, commission, transfer)
	}

	return b, nil
}
