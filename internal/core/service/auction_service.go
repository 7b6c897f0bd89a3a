package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rqhall/cowchain-farm/internal/core/domain"
	"github.com/rqhall/cowchain-farm/internal/port"
)

type AuctionResult struct {
	Status  domain.Status   `json:"status"`
	Auction *domain.Auction `json:"auction,omitempty"`
}

type ListAuctionsResult struct {
	Status   domain.Status    `json:"status"`
	Auctions []domain.Auction `json:"auctions"`
}

// RegisterAuction opens an auction for a cow. The cow must exist and must
// not already be under auction. The record starts with the seller
// placeholder as highest bidder and a 12-hour bidding window fixed at
// registration.
func (s *FarmService) RegisterAuction(ctx context.Context, user, cowID, auctionID string, startPrice int64) (AuctionResult, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return AuctionResult{}, err
	}
	if cfg == nil {
		return AuctionResult{Status: domain.StatusNotInitialized}, nil
	}

	cow, err := s.loadCow(ctx, cowID)
	if err != nil {
		return AuctionResult{}, err
	}
	if cow == nil {
		return AuctionResult{Status: domain.StatusNotFound}, nil
	}
	if cow.OnAuction() {
		return AuctionResult{Status: domain.StatusOnAuction}, nil
	}
	if startPrice <= 0 || startPrice > domain.MaxUnitAmount {
		return AuctionResult{Status: domain.StatusFail}, nil
	}

	now := s.clock.Now()
	auction := domain.NewAuction(auctionID, *cow, user, startPrice, now)
	cow.AuctionID = auctionID

	index, err := s.loadAuctionIndex(ctx)
	if err != nil {
		return AuctionResult{}, err
	}
	index = append(index, auctionID)
	if err := s.setRecord(ctx, auctionIndexKey, index, domain.TicksIn1Month); err != nil {
		return AuctionResult{}, err
	}
	if err := s.setRecord(ctx, auctionKey(auctionID), auction, domain.TicksIn24Hours); err != nil {
		return AuctionResult{}, err
	}
	if err := s.saveCow(ctx, *cow); err != nil {
		return AuctionResult{}, err
	}
	if err := s.store.RenewLifetime(ctx, ownerKey(user), domain.TicksIn1Week); err != nil {
		return AuctionResult{}, fmt.Errorf("renew ownership: %w", err)
	}

	s.publish(domain.Event{
		Kind:      domain.EventRegister,
		CowID:     cow.ID,
		CowName:   cow.Name,
		AuctionID: auctionID,
		Owner:     user,
		Bidder:    auction.HighestBidder.User,
		Price:     auction.HighestBidder.Price,
		Tick:      now,
	})

	return AuctionResult{Status: domain.StatusOk, Auction: &auction}, nil
}

// Bid places a bid, escrowing the full amount under farm custody. The
// previous highest bidder, unless it is the seller placeholder, is refunded
// in the same call.
func (s *FarmService) Bid(ctx context.Context, user, auctionID string, price int64) (AuctionResult, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return AuctionResult{}, err
	}
	if cfg == nil {
		return AuctionResult{Status: domain.StatusNotInitialized}, nil
	}

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return AuctionResult{}, err
	}
	if auction == nil {
		return AuctionResult{Status: domain.StatusNotFound}, nil
	}

	now := s.clock.Now()
	if auction.Closed(now) {
		return AuctionResult{Status: domain.StatusBidIsClosed}, nil
	}
	// Amounts past MaxUnitAmount would wrap when converted to micro-units,
	// escrowing less than the quoted price.
	if price <= 0 || price > domain.MaxUnitAmount {
		return AuctionResult{Status: domain.StatusFail}, nil
	}
	if price <= auction.HighestBidder.Price {
		return AuctionResult{Status: domain.StatusCannotBidLower}, nil
	}

	amount := price * domain.MicroUnitsPerUnit
	balance, err := s.ledger.Balance(ctx, user)
	if err != nil {
		return AuctionResult{}, fmt.Errorf("bidder balance: %w", err)
	}
	if balance-domain.MinimumUserBalance-amount <= 0 {
		return AuctionResult{Status: domain.StatusInsufficientFund}, nil
	}
	if err := s.ledger.Transfer(ctx, user, s.custody, amount); err != nil {
		if errors.Is(err, port.ErrInsufficientBalance) {
			return AuctionResult{Status: domain.StatusInsufficientFund}, nil
		}
		return AuctionResult{}, fmt.Errorf("escrow transfer: %w", err)
	}

	if auction.HasRealBid() {
		prev := auction.HighestBidder
		if err := s.ledger.Transfer(ctx, s.custody, prev.User, prev.Price*domain.MicroUnitsPerUnit); err != nil {
			return AuctionResult{}, fmt.Errorf("refund transfer: %w", err)
		}
		s.publish(domain.Event{
			Kind:      domain.EventRefund,
			CowID:     auction.CowID,
			AuctionID: auction.ID,
			Owner:     auction.Owner,
			Bidder:    prev.User,
			Price:     prev.Price,
			Tick:      now,
		})
	}

	auction.BidHistory = append(auction.BidHistory, auction.HighestBidder)
	auction.HighestBidder = domain.Bidder{User: user, Price: price}

	if err := s.saveAuction(ctx, *auction); err != nil {
		return AuctionResult{}, err
	}
	if err := s.store.RenewLifetime(ctx, ownerKey(user), domain.TicksIn1Week); err != nil {
		return AuctionResult{}, fmt.Errorf("renew ownership: %w", err)
	}

	return AuctionResult{Status: domain.StatusOk, Auction: auction}, nil
}

// Finalize settles an auction once its bidding window has passed. Three
// cases: the cow lapsed (refund any real bid, delete the record), no real
// bid (release the cow, delete the record), or a real bid on a living cow
// (pay the seller, move ownership to the winner, delete the record).
// Finalizing an already-finalized auction reads as NotFound.
func (s *FarmService) Finalize(ctx context.Context, auctionID string) (AuctionResult, error) {
	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return AuctionResult{}, err
	}
	if auction == nil {
		return AuctionResult{Status: domain.StatusNotFound}, nil
	}

	now := s.clock.Now()
	if !auction.Closed(now) {
		return AuctionResult{Status: domain.StatusBidIsOpen}, nil
	}

	cow, err := s.loadCow(ctx, auction.CowID)
	if err != nil {
		return AuctionResult{}, err
	}

	if !auction.HasRealBid() {
		if cow == nil {
			// Nothing to deliver, nothing to refund.
			if err := s.store.Remove(ctx, auctionKey(auctionID)); err != nil {
				return AuctionResult{}, fmt.Errorf("remove auction: %w", err)
			}
			return AuctionResult{Status: domain.StatusOk}, nil
		}
		cow.AuctionID = ""
		if err := s.store.Remove(ctx, auctionKey(auctionID)); err != nil {
			return AuctionResult{}, fmt.Errorf("remove auction: %w", err)
		}
		if err := s.saveCow(ctx, *cow); err != nil {
			return AuctionResult{}, err
		}
		return AuctionResult{Status: domain.StatusOk}, nil
	}

	winner := auction.HighestBidder
	amount := winner.Price * domain.MicroUnitsPerUnit

	if cow == nil {
		// The cow died mid-auction; the escrowed bid goes back to the
		// winner since there is nothing to deliver.
		if err := s.ledger.Transfer(ctx, s.custody, winner.User, amount); err != nil {
			return AuctionResult{}, fmt.Errorf("refund transfer: %w", err)
		}
		s.publish(domain.Event{
			Kind:      domain.EventRefund,
			CowID:     auction.CowID,
			AuctionID: auction.ID,
			Owner:     auction.Owner,
			Bidder:    winner.User,
			Price:     winner.Price,
			Tick:      now,
		})
		if err := s.store.Remove(ctx, auctionKey(auctionID)); err != nil {
			return AuctionResult{}, fmt.Errorf("remove auction: %w", err)
		}
		return AuctionResult{Status: domain.StatusOk}, nil
	}

	if err := s.ledger.Transfer(ctx, s.custody, auction.Owner, amount); err != nil {
		return AuctionResult{}, fmt.Errorf("settlement transfer: %w", err)
	}

	sellerList, err := s.loadOwnership(ctx, auction.Owner)
	if err != nil {
		return AuctionResult{}, err
	}
	sellerList, _ = removeID(sellerList, auction.CowID)
	if err := s.setRecord(ctx, ownerKey(auction.Owner), sellerList, domain.TicksIn1Week); err != nil {
		return AuctionResult{}, err
	}

	winnerList, err := s.loadOwnership(ctx, winner.User)
	if err != nil {
		return AuctionResult{}, err
	}
	winnerList = append(winnerList, auction.CowID)
	if err := s.setRecord(ctx, ownerKey(winner.User), winnerList, domain.TicksIn1Week); err != nil {
		return AuctionResult{}, err
	}

	index, err := s.loadAuctionIndex(ctx)
	if err != nil {
		return AuctionResult{}, err
	}
	if trimmed, found := removeID(index, auctionID); found {
		if err := s.setRecord(ctx, auctionIndexKey, trimmed, domain.TicksIn1Month); err != nil {
			return AuctionResult{}, err
		}
	}

	cow.AuctionID = ""
	if err := s.store.Remove(ctx, auctionKey(auctionID)); err != nil {
		return AuctionResult{}, fmt.Errorf("remove auction: %w", err)
	}
	if err := s.saveCow(ctx, *cow); err != nil {
		return AuctionResult{}, err
	}

	s.publish(domain.Event{
		Kind:      domain.EventAuction,
		CowID:     auction.CowID,
		CowName:   auction.CowName,
		AuctionID: auction.ID,
		Owner:     auction.Owner,
		Bidder:    winner.User,
		Price:     winner.Price,
		Tick:      now,
	})

	return AuctionResult{Status: domain.StatusOk, Auction: auction}, nil
}

// ListAuctions returns every open auction in the index, skipping records
// that have already been finalized or lapsed.
func (s *FarmService) ListAuctions(ctx context.Context) (ListAuctionsResult, error) {
	exists, err := s.store.Has(ctx, auctionIndexKey)
	if err != nil {
		return ListAuctionsResult{}, fmt.Errorf("check auction index: %w", err)
	}
	if !exists {
		return ListAuctionsResult{Status: domain.StatusNotFound}, nil
	}

	index, err := s.loadAuctionIndex(ctx)
	if err != nil {
		return ListAuctionsResult{}, err
	}
	auctions := make([]domain.Auction, 0, len(index))
	for _, id := range index {
		auction, err := s.loadAuction(ctx, id)
		if err != nil {
			return ListAuctionsResult{}, err
		}
		if auction == nil {
			continue
		}
		auctions = append(auctions, *auction)
	}
	return ListAuctionsResult{Status: domain.StatusOk, Auctions: auctions}, nil
}

func (s *FarmService) loadAuction(ctx context.Context, id string) (*domain.Auction, error) {
	var auction domain.Auction
	found, err := s.getRecord(ctx, auctionKey(id), &auction)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &auction, nil
}

func (s *FarmService) loadAuctionIndex(ctx context.Context) ([]string, error) {
	var index []string
	found, err := s.getRecord(ctx, auctionIndexKey, &index)
	if err != nil {
		return nil, err
	}
	if !found || index == nil {
		return []string{}, nil
	}
	return index, nil
}

// saveCow rewrites the cow record without renewing its lifetime; the store
// keeps whatever countdown is already attached.
func (s *FarmService) saveCow(ctx context.Context, cow domain.Cow) error {
	data, err := json.Marshal(cow)
	if err != nil {
		return fmt.Errorf("encode cow: %w", err)
	}
	if err := s.store.Set(ctx, cowKey(cow.ID), data); err != nil {
		return fmt.Errorf("set cow: %w", err)
	}
	return nil
}

func (s *FarmService) saveAuction(ctx context.Context, auction domain.Auction) error {
	data, err := json.Marshal(auction)
	if err != nil {
		return fmt.Errorf("encode auction: %w", err)
	}
	if err := s.store.Set(ctx, auctionKey(auction.ID), data); err != nil {
		return fmt.Errorf("set auction: %w", err)
	}
	return nil
}
