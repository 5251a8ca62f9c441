package store

import (
	"context"
	"sync"
	"time"

	"github.com/ursuslabs/connect-gateway/internal/model"
)

// Memory is an in-process Ledger. Settlements survive only for the lifetime
// of the process; deployments that need durability use the bolt or postgres
// backends.
type Memory struct {
	mu          sync.Mutex
	settlements map[string]model.Settlement
	refunds     []model.RefundAudit
}

func NewMemory() *Memory {
	return &Memory{settlements: make(map[string]model.Settlement)}
}

func (m *Memory) IsSettled(_ context.Context, chargeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.settlements[chargeID]
	return ok, nil
}

func (m *Memory) MarkSettled(_ context.Context, s model.Settlement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.settlements[s.ChargeID]; ok {
		return false, nil
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.settlements[s.ChargeID] = s
	return true, nil
}

func (m *Memory) RecordRefund(_ context.Context, a model.RefundAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.refunds = append(m.refunds, a)
	return nil
}

// Refunds returns a copy of the recorded refund audits.
func (m *Memory) Refunds() []model.RefundAudit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RefundAudit, len(m.refunds))
	copy(out, m.refunds)
	return out
}

func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
