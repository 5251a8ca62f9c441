package store

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ursuslabs/connect-gateway/internal/model"
)

func TestMemoryMarkSettled(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()

	settled, err := ledger.IsSettled(ctx, "ch_1")
	require.NoError(t, err)
	assert.False(t, settled)

	created, err := ledger.MarkSettled(ctx, model.Settlement{ChargeID: "ch_1", GrossAmount: 10000})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = ledger.MarkSettled(ctx, model.Settlement{ChargeID: "ch_1", GrossAmount: 10000})
	require.NoError(t, err)
	assert.False(t, created, "second mark must not win")

	settled, err = ledger.IsSettled(ctx, "ch_1")
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestMemoryMarkSettledConcurrent(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()

	var wins atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			created, err := ledger.MarkSettled(gctx, model.Settlement{ChargeID: "ch_race", GrossAmount: 5000})
			if err != nil {
				return err
			}
			if created {
				wins.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), wins.Load(), "exactly one concurrent mark may win")
}

func TestMemoryRecordRefund(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()

	require.NoError(t, ledger.RecordRefund(ctx, model.RefundAudit{
		ChargeID:         "ch_r",
		AmountRefunded:   10000,
		OriginalGross:    10000,
		OriginalTransfer: 9584,
	}))
	require.NoError(t, ledger.RecordRefund(ctx, model.RefundAudit{
		ChargeID:       "ch_r",
		AmountRefunded: 500,
		OriginalGross:  10000,
	}))

	refunds := ledger.Refunds()
	require.Len(t, refunds, 2)
	assert.Equal(t, "ch_r", refunds[0].ChargeID)
	assert.False(t, refunds[0].CreatedAt.IsZero())
}
