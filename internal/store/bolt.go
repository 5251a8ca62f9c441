package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/ursuslabs/connect-gateway/internal/model"
)

var (
	settlementsBucket = []byte("settlements")
	refundsBucket     = []byte("refunds")
)

// Bolt is a single-file Ledger for deployments without postgres. The
// check-and-mark in MarkSettled runs inside one Update transaction, which
// bolt serializes, so concurrent deliveries of the same charge id cannot
// both win.
type Bolt struct {
	db *bolt.DB
}

func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{settlementsBucket, refundsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) IsSettled(_ context.Context, chargeID string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(settlementsBucket).Get([]byte(chargeID)) != nil
		return nil
	})
	return found, err
}

func (b *Bolt) MarkSettled(_ context.Context, s model.Settlement) (bool, error) {
	created := false
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(settlementsBucket)
		if bucket.Get([]byte(s.ChargeID)) != nil {
			return nil
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		created = true
		return bucket.Put([]byte(s.ChargeID), data)
	})
	if err != nil {
		return false, fmt.Errorf("mark settled %s: %w", s.ChargeID, err)
	}
	return created, nil
}

func (b *Bolt) RecordRefund(_ context.Context, a model.RefundAudit) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(refundsBucket)
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%s-%d", a.ChargeID, seq)
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("record refund %s: %w", a.ChargeID, err)
	}
	return nil
}

func (b *Bolt) Ping(_ context.Context) error {
	return b.db.View(func(tx *bolt.Tx) error { return nil })
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
