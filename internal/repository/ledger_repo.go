package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ursuslabs/connect-gateway/internal/model"
)

// LedgerRepository is the postgres-backed settlement ledger. The atomic
// check-and-mark relies on the primary key on charge_id plus
// ON CONFLICT DO NOTHING, so concurrent inserts race safely in the database
// rather than in application code.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) IsSettled(ctx context.Context, chargeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM settlements WHERE charge_id = $1)`,
		chargeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check settlement %s: %w", chargeID, err)
	}
	return exists, nil
}

func (r *LedgerRepository) MarkSettled(ctx context.Context, s model.Settlement) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO settlements (charge_id, transfer_id, gross_amount, stripe_fee, platform_commission, transfer_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (charge_id) DO NOTHING`,
		s.ChargeID, s.TransferID, s.GrossAmount, s.StripeFee, s.PlatformCommission, s.TransferAmount,
	)
	if err != nil {
		return false, fmt.Errorf("mark settled %s: %w", s.ChargeID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *LedgerRepository) RecordRefund(ctx context.Context, a model.RefundAudit) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refund_audits (charge_id, amount_refunded, original_gross, original_transfer)
		VALUES ($1, $2, $3, $4)`,
		a.ChargeID, a.AmountRefunded, a.OriginalGross, a.OriginalTransfer,
	)
	if err != nil {
		return fmt.Errorf("record refund %s: %w", a.ChargeID, err)
	}
	return nil
}

func (r *LedgerRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by main.
func (r *LedgerRepository) Close() error { return nil }
