package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rqhall/cowchain-farm/internal/adapter/payment"
	"github.com/rqhall/cowchain-farm/internal/adapter/storage"
	"github.com/rqhall/cowchain-farm/internal/core/domain"
	"github.com/rqhall/cowchain-farm/internal/core/service"
)

// loadcheck exercises the auction engine against the in-memory adapters:
// many bidders race on one auction, then the escrow accounting is checked.
// Bids are serialized through a mutex because the engine assumes a
// serializing admission process in front of it.

const (
	custody      = "farm-custody"
	passphrase   = "loadcheck"
	totalBidders = 50
	startPrice   = 1100
	userFunds    = 200_000 * domain.MicroUnitsPerUnit
)

type tickSource struct {
	tick atomic.Uint64
}

func (c *tickSource) Now() uint64      { return c.tick.Load() }
func (c *tickSource) Advance(n uint64) { c.tick.Add(n) }

func main() {
	ctx := context.Background()

	clk := &tickSource{}
	store := storage.NewMemoryStore(clk)
	ledger := payment.NewMemoryLedger()
	farm := service.NewFarmService(store, ledger, clk, custody, passphrase, 4096)
	defer farm.Close()

	// Drain the event queue in background
	go func() {
		for range farm.Events() {
		}
	}()

	if r, err := farm.Init(ctx, "admin", "native", passphrase); err != nil || r.Status != domain.StatusOk {
		log.Fatalf("init failed: %v %v", r.Status, err)
	}

	ledger.SetBalance(ctx, "seller", userFunds)
	for i := 0; i < totalBidders; i++ {
		ledger.SetBalance(ctx, fmt.Sprintf("bidder-%d", i), userFunds)
	}

	if r, err := farm.Buy(ctx, "seller", "bessie", domain.BreedJersey, "cow-1"); err != nil || r.Status != domain.StatusOk {
		log.Fatalf("buy failed: %v %v", r.Status, err)
	}

	if r, err := farm.RegisterAuction(ctx, "seller", "cow-1", "auction-1", startPrice); err != nil || r.Status != domain.StatusOk {
		log.Fatalf("register failed: %v %v", r.Status, err)
	}

	var accepted atomic.Int32
	var rejected atomic.Int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < totalBidders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			mu.Lock()
			defer mu.Unlock()
			r, err := farm.Bid(ctx, fmt.Sprintf("bidder-%d", id), "auction-1", int64(startPrice+1+id))
			if err != nil {
				log.Fatalf("bid error: %v", err)
			}
			if r.Status == domain.StatusOk {
				accepted.Add(1)
			} else {
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Close the window and settle
	clk.Advance(domain.TicksIn12Hours + 1)
	result, err := farm.Finalize(ctx, "auction-1")
	if err != nil || result.Status != domain.StatusOk {
		log.Fatalf("finalize failed: %v %v", result.Status, err)
	}
	winner := result.Auction.HighestBidder

	fmt.Println("========== LOADCHECK RESULTS ==========")
	fmt.Printf("Bidders:        %d\n", totalBidders)
	fmt.Printf("Accepted:       %d\n", accepted.Load())
	fmt.Printf("Rejected:       %d\n", rejected.Load())
	fmt.Printf("Winning bid:    %d by %s\n", winner.Price, winner.User)
	fmt.Printf("Duration:       %v\n", elapsed)
	fmt.Println("=======================================")

	// The top bid is always acceptable regardless of arrival order.
	if winner.Price != int64(startPrice+totalBidders) {
		log.Fatalf("FAIL: expected winning bid %d, got %d", startPrice+totalBidders, winner.Price)
	}

	// Every losing bidder must end where they started: escrow fully refunded.
	for i := 0; i < totalBidders; i++ {
		user := fmt.Sprintf("bidder-%d", i)
		if user == winner.User {
			continue
		}
		balance, _ := ledger.Balance(ctx, user)
		if balance != userFunds {
			log.Fatalf("FAIL: %s balance %d, want %d", user, balance, userFunds)
		}
	}

	// The seller holds the winning amount on top of what the cow cost them.
	sellerBalance, _ := ledger.Balance(ctx, "seller")
	want := userFunds - domain.BasePrice(domain.BreedJersey) + winner.Price*domain.MicroUnitsPerUnit
	if sellerBalance != want {
		log.Fatalf("FAIL: seller balance %d, want %d", sellerBalance, want)
	}

	fmt.Println("PASS: escrow and settlement accounting balanced")
}
