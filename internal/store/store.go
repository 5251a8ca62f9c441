// Package store defines the settlement ledger used for idempotency
// enforcement and provides the embedded backends (memory, bolt). The
// postgres backend lives in internal/repository.
package store

import (
	"context"

	"github.com/ursuslabs/connect-gateway/internal/model"
)

// Ledger tracks which charges have already been settled and keeps refund
// audit records. Implementations must be safe for concurrent use, and
// MarkSettled must be atomic: of N concurrent calls for the same charge id,
// exactly one observes created == true.
type Ledger interface {
	// IsSettled reports whether a transfer has been recorded for the charge.
	IsSettled(ctx context.Context, chargeID string) (bool, error)

	// MarkSettled records the settlement. created is false when the charge
	// was already present, in which case the stored record is left untouched.
	MarkSettled(ctx context.Context, s model.Settlement) (created bool, err error)

	// RecordRefund appends a refund audit entry.
	RecordRefund(ctx context.Context, a model.RefundAudit) error

	// Ping reports whether the ledger is reachable. A gateway without its
	// ledger cannot settle anything, so health checks probe it.
	Ping(ctx context.Context) error

	Close() error
}
