package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/rqhall/cowchain-farm/internal/port"
)

func TestMemoryLedger_Transfer(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	ledger.SetBalance(ctx, "alice", 1000)

	if err := ledger.Transfer(ctx, "alice", "bob", 400); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	aliceBalance, _ := ledger.Balance(ctx, "alice")
	bobBalance, _ := ledger.Balance(ctx, "bob")
	if aliceBalance != 600 || bobBalance != 400 {
		t.Errorf("balances = %d/%d, want 600/400", aliceBalance, bobBalance)
	}
}

func TestMemoryLedger_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	ledger.SetBalance(ctx, "alice", 100)

	err := ledger.Transfer(ctx, "alice", "bob", 101)
	if !errors.Is(err, port.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	// A rejected transfer moves nothing.
	aliceBalance, _ := ledger.Balance(ctx, "alice")
	bobBalance, _ := ledger.Balance(ctx, "bob")
	if aliceBalance != 100 || bobBalance != 0 {
		t.Errorf("balances = %d/%d, want 100/0", aliceBalance, bobBalance)
	}
}

func TestMemoryLedger_UnknownAccountIsEmpty(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	balance, err := ledger.Balance(ctx, "ghost")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
	if err := ledger.Transfer(ctx, "ghost", "bob", 1); !errors.Is(err, port.ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
}
