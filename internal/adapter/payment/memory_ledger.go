package payment

import (
	"context"
	"sync"

	"github.com/rqhall/cowchain-farm/internal/port"
)

// MemoryLedger is an in-process ledger for tests and the loadcheck harness.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]int64)}
}

func (l *MemoryLedger) Balance(ctx context.Context, account string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

func (l *MemoryLedger) Transfer(ctx context.Context, from, to string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return port.ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *MemoryLedger) SetBalance(ctx context.Context, account string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = amount
	return nil
}
