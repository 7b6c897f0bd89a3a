package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rqhall/cowchain-farm/internal/core/domain"
	"github.com/rqhall/cowchain-farm/internal/port"
)

// Storage keys. Config is long-lived, ownership lists and the open-auction
// index are medium-lived, cows / names / auctions are short-lived and must
// be renewed on every touch or they lapse.
const (
	configKey       = "config"
	auctionIndexKey = "auctions"
)

func cowKey(id string) string     { return "cow:" + id }
func nameKey(name string) string  { return "name:" + name }
func ownerKey(user string) string { return "owner:" + user }
func auctionKey(id string) string { return "auction:" + id }

// FarmConfig is the one-time farm configuration: the admin identity and the
// payment-token address, stored under the long-lived config key. Presence of
// this record is what "initialized" means.
type FarmConfig struct {
	Admin           string `json:"admin"`
	PaymentToken    string `json:"payment_token"`
	InitializedTick uint64 `json:"initialized_tick"`
}

// FarmService is the asset lifecycle engine: buying, selling, feeding,
// appraisal, and the auction protocol. Every operation validates all
// preconditions before mutating anything, so a non-Ok status always leaves
// stored state untouched.
type FarmService struct {
	store      port.Store
	ledger     port.Ledger
	clock      port.Clock
	custody    string
	passphrase string
	events     chan domain.Event
}

func NewFarmService(store port.Store, ledger port.Ledger, clock port.Clock, custody, passphrase string, queueSize int) *FarmService {
	return &FarmService{
		store:      store,
		ledger:     ledger,
		clock:      clock,
		custody:    custody,
		passphrase: passphrase,
		events:     make(chan domain.Event, queueSize),
	}
}

// Events exposes the queue of emitted events for the worker pool to drain.
func (s *FarmService) Events() <-chan domain.Event {
	return s.events
}

func (s *FarmService) Close() {
	close(s.events)
}

// publish enqueues an event without blocking. A full queue drops the event;
// notifications never affect the outcome of the call that produced them.
func (s *FarmService) publish(event domain.Event) {
	select {
	case s.events <- event:
	default:
	}
}

type StatusResult struct {
	Status domain.Status `json:"status"`
	Tick   uint64        `json:"tick"`
}

type BuyResult struct {
	Status    domain.Status `json:"status"`
	Cow       *domain.Cow   `json:"cow,omitempty"`
	Ownership []string      `json:"ownership,omitempty"`
}

type SellResult struct {
	Status    domain.Status `json:"status"`
	Ownership []string      `json:"ownership,omitempty"`
}

type AppraisalResult struct {
	Status domain.Status `json:"status"`
	Price  int64         `json:"price"`
}

type FeedResult struct {
	Status      domain.Status `json:"status"`
	LastFedTick uint64        `json:"last_fed_tick"`
}

type ListCowsResult struct {
	Status domain.Status `json:"status"`
	Cows   []domain.Cow  `json:"cows"`
}

// Init performs the one-time farm initialization, gated by the configured
// passphrase so strangers cannot claim an unconfigured deployment.
func (s *FarmService) Init(ctx context.Context, admin, paymentToken, passphrase string) (StatusResult, error) {
	now := s.clock.Now()
	if passphrase != s.passphrase {
		return StatusResult{Status: domain.StatusTryAgain, Tick: now}, nil
	}
	exists, err := s.store.Has(ctx, configKey)
	if err != nil {
		return StatusResult{}, fmt.Errorf("check config: %w", err)
	}
	if exists {
		return StatusResult{Status: domain.StatusAlreadyInitialized, Tick: now}, nil
	}
	cfg := FarmConfig{
		Admin:           admin,
		PaymentToken:    paymentToken,
		InitializedTick: now,
	}
	if err := s.setRecord(ctx, configKey, cfg, domain.TicksIn1Month); err != nil {
		return StatusResult{}, err
	}
	return StatusResult{Status: domain.StatusOk, Tick: now}, nil
}

// HealthCheck reports liveness and the current tick.
func (s *FarmService) HealthCheck(ctx context.Context) StatusResult {
	return StatusResult{Status: domain.StatusOk, Tick: s.clock.Now()}
}

// ExtendConfigLifetime renews the long-lived config record. Admin only.
func (s *FarmService) ExtendConfigLifetime(ctx context.Context, actor string, ticks uint64) (StatusResult, error) {
	now := s.clock.Now()
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return StatusResult{}, err
	}
	if cfg == nil {
		return StatusResult{Status: domain.StatusNotInitialized, Tick: now}, nil
	}
	if actor != cfg.Admin {
		return StatusResult{Status: domain.StatusFail, Tick: now}, nil
	}
	if err := s.store.RenewLifetime(ctx, configKey, ticks); err != nil {
		return StatusResult{}, fmt.Errorf("renew config: %w", err)
	}
	return StatusResult{Status: domain.StatusOk, Tick: now}, nil
}

// Donate transfers whole units from a user into farm custody.
func (s *FarmService) Donate(ctx context.Context, from string, amount int64) (StatusResult, error) {
	now := s.clock.Now()
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return StatusResult{}, err
	}
	if cfg == nil {
		return StatusResult{Status: domain.StatusFail, Tick: now}, nil
	}
	if amount <= 0 || amount > domain.MaxUnitAmount {
		return StatusResult{Status: domain.StatusFail, Tick: now}, nil
	}
	if err := s.ledger.Transfer(ctx, from, s.custody, amount*domain.MicroUnitsPerUnit); err != nil {
		if errors.Is(err, port.ErrInsufficientBalance) {
			return StatusResult{Status: domain.StatusInsufficientFund, Tick: now}, nil
		}
		return StatusResult{}, fmt.Errorf("donation transfer: %w", err)
	}
	return StatusResult{Status: domain.StatusOk, Tick: now}, nil
}

// Buy purchases a new cow from the supplier. The name must be unique among
// living cows; the price is the breed's base price, paid into farm custody.
func (s *FarmService) Buy(ctx context.Context, user, name string, breed domain.Breed, id string) (BuyResult, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return BuyResult{}, err
	}
	if cfg == nil {
		return BuyResult{Status: domain.StatusNotInitialized}, nil
	}
	if !breed.Valid() {
		return BuyResult{Status: domain.StatusFail}, nil
	}

	nameTaken, err := s.store.Has(ctx, nameKey(name))
	if err != nil {
		return BuyResult{}, fmt.Errorf("check name: %w", err)
	}
	if nameTaken {
		return BuyResult{Status: domain.StatusDuplicate}, nil
	}

	price := domain.BasePrice(breed)
	balance, err := s.ledger.Balance(ctx, user)
	if err != nil {
		return BuyResult{}, fmt.Errorf("user balance: %w", err)
	}
	if balance-domain.MinimumUserBalance-price <= 0 {
		return BuyResult{Status: domain.StatusInsufficientFund}, nil
	}
	if err := s.ledger.Transfer(ctx, user, s.custody, price); err != nil {
		if errors.Is(err, port.ErrInsufficientBalance) {
			return BuyResult{Status: domain.StatusInsufficientFund}, nil
		}
		return BuyResult{}, fmt.Errorf("purchase transfer: %w", err)
	}

	now := s.clock.Now()
	cow := domain.Cow{
		ID:          id,
		Name:        name,
		Breed:       breed,
		BornTick:    now,
		LastFedTick: now,
	}

	ownership, err := s.loadOwnership(ctx, user)
	if err != nil {
		return BuyResult{}, err
	}
	ownership = append(ownership, id)
	if err := s.setRecord(ctx, ownerKey(user), ownership, domain.TicksIn1Week); err != nil {
		return BuyResult{}, err
	}
	if err := s.setRecord(ctx, cowKey(id), cow, domain.TicksIn24Hours); err != nil {
		return BuyResult{}, err
	}
	if err := s.setRecord(ctx, nameKey(name), id, domain.TicksIn24Hours); err != nil {
		return BuyResult{}, err
	}

	s.publish(domain.Event{
		Kind:    domain.EventBuy,
		CowID:   cow.ID,
		CowName: cow.Name,
		Owner:   user,
		Tick:    now,
	})

	return BuyResult{Status: domain.StatusOk, Cow: &cow, Ownership: ownership}, nil
}

// Sell returns a cow to the supplier at its appraisal price. Cows under
// auction or younger than three days cannot be sold.
func (s *FarmService) Sell(ctx context.Context, user, id string) (SellResult, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return SellResult{}, err
	}
	if cfg == nil {
		return SellResult{Status: domain.StatusNotInitialized}, nil
	}

	cow, err := s.loadCow(ctx, id)
	if err != nil {
		return SellResult{}, err
	}
	if cow == nil {
		return SellResult{Status: domain.StatusNotFound}, nil
	}

	ownership, err := s.loadOwnershipStrict(ctx, user)
	if err != nil {
		return SellResult{}, err
	}
	if ownership == nil {
		return SellResult{Status: domain.StatusMissingOwnership}, nil
	}

	if cow.OnAuction() {
		return SellResult{Status: domain.StatusOnAuction}, nil
	}

	now := s.clock.Now()
	if cow.Underage(now) {
		return SellResult{Status: domain.StatusUnderage}, nil
	}

	price := domain.Appraise(cow.FeedingStats, domain.BasePrice(cow.Breed))
	custodyBalance, err := s.ledger.Balance(ctx, s.custody)
	if err != nil {
		return SellResult{}, fmt.Errorf("custody balance: %w", err)
	}
	if custodyBalance < price {
		return SellResult{Status: domain.StatusInsufficientFund}, nil
	}
	if err := s.ledger.Transfer(ctx, s.custody, user, price); err != nil {
		return SellResult{}, fmt.Errorf("sale transfer: %w", err)
	}

	ownership, _ = removeID(ownership, id)
	if err := s.setRecord(ctx, ownerKey(user), ownership, domain.TicksIn1Week); err != nil {
		return SellResult{}, err
	}
	if err := s.store.Remove(ctx, cowKey(id)); err != nil {
		return SellResult{}, fmt.Errorf("remove cow: %w", err)
	}
	if err := s.store.Remove(ctx, nameKey(cow.Name)); err != nil {
		return SellResult{}, fmt.Errorf("remove name: %w", err)
	}

	s.publish(domain.Event{
		Kind:    domain.EventSell,
		CowID:   cow.ID,
		CowName: cow.Name,
		Owner:   user,
		Tick:    now,
	})

	return SellResult{Status: domain.StatusOk, Ownership: ownership}, nil
}

// Appraise computes a cow's market value without touching any state.
func (s *FarmService) Appraise(ctx context.Context, id string) (AppraisalResult, error) {
	cow, err := s.loadCow(ctx, id)
	if err != nil {
		return AppraisalResult{}, err
	}
	if cow == nil {
		return AppraisalResult{Status: domain.StatusNotFound}, nil
	}
	if cow.Underage(s.clock.Now()) {
		return AppraisalResult{Status: domain.StatusUnderage}, nil
	}
	price := domain.Appraise(cow.FeedingStats, domain.BasePrice(cow.Breed))
	return AppraisalResult{Status: domain.StatusOk, Price: price}, nil
}

// Feed advances a cow's feeding state machine. A cow fed within the full
// window eats nothing and nothing is renewed; otherwise exactly one feeding
// counter increments and the cow, its name record, and the owner's list all
// get their lifetimes renewed.
func (s *FarmService) Feed(ctx context.Context, user, id string) (FeedResult, error) {
	cow, err := s.loadCow(ctx, id)
	if err != nil {
		return FeedResult{}, err
	}
	if cow == nil {
		return FeedResult{Status: domain.StatusNotFound}, nil
	}

	hasOwnership, err := s.store.Has(ctx, ownerKey(user))
	if err != nil {
		return FeedResult{}, fmt.Errorf("check ownership: %w", err)
	}
	if !hasOwnership {
		return FeedResult{Status: domain.StatusMissingOwnership}, nil
	}

	now := s.clock.Now()
	distance := now - cow.LastFedTick
	outcome := domain.ClassifyFeeding(distance)
	if outcome == domain.FeedFull {
		return FeedResult{Status: domain.StatusFullStomach, LastFedTick: cow.LastFedTick}, nil
	}

	cow.FeedingStats.Record(outcome)
	cow.LastFedTick = now

	if err := s.setRecord(ctx, cowKey(id), cow, domain.TicksIn24Hours); err != nil {
		return FeedResult{}, err
	}
	if err := s.store.RenewLifetime(ctx, nameKey(cow.Name), domain.TicksIn24Hours); err != nil {
		return FeedResult{}, fmt.Errorf("renew name: %w", err)
	}
	if err := s.store.RenewLifetime(ctx, ownerKey(user), domain.TicksIn1Week); err != nil {
		return FeedResult{}, fmt.Errorf("renew ownership: %w", err)
	}

	s.publish(domain.Event{
		Kind:    domain.EventFeed,
		CowID:   cow.ID,
		CowName: cow.Name,
		Owner:   user,
		Tick:    now,
	})

	return FeedResult{Status: domain.StatusOk, LastFedTick: now}, nil
}

// ListCows returns the user's living cows. Lapsed cows still listed in the
// ownership record are skipped silently.
func (s *FarmService) ListCows(ctx context.Context, user string) (ListCowsResult, error) {
	ownership, err := s.loadOwnershipStrict(ctx, user)
	if err != nil {
		return ListCowsResult{}, err
	}
	if ownership == nil {
		return ListCowsResult{Status: domain.StatusFail}, nil
	}

	cows := make([]domain.Cow, 0, len(ownership))
	for _, id := range ownership {
		cow, err := s.loadCow(ctx, id)
		if err != nil {
			return ListCowsResult{}, err
		}
		if cow == nil {
			continue
		}
		cows = append(cows, *cow)
	}
	return ListCowsResult{Status: domain.StatusOk, Cows: cows}, nil
}

// loadConfig returns nil when the farm is not initialized.
func (s *FarmService) loadConfig(ctx context.Context) (*FarmConfig, error) {
	var cfg FarmConfig
	found, err := s.getRecord(ctx, configKey, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cfg, nil
}

// loadCow returns nil when the cow is absent or its record has lapsed.
func (s *FarmService) loadCow(ctx context.Context, id string) (*domain.Cow, error) {
	var cow domain.Cow
	found, err := s.getRecord(ctx, cowKey(id), &cow)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cow, nil
}

// loadOwnership returns the user's list, or an empty list when the user has
// never owned a cow.
func (s *FarmService) loadOwnership(ctx context.Context, user string) ([]string, error) {
	list, err := s.loadOwnershipStrict(ctx, user)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return []string{}, nil
	}
	return list, nil
}

// loadOwnershipStrict returns nil (not an empty list) when the ownership
// record is missing, so callers can report MissingOwnership.
func (s *FarmService) loadOwnershipStrict(ctx context.Context, user string) ([]string, error) {
	var list []string
	found, err := s.getRecord(ctx, ownerKey(user), &list)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func (s *FarmService) getRecord(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		// Deleted and lapsed records both read as missing here; the store
		// keeps them distinguishable for its own accounting.
		if errors.Is(err, port.ErrNotFound) || errors.Is(err, port.ErrExpired) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *FarmService) setRecord(ctx context.Context, key string, value any, lifetime uint64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.store.RenewLifetime(ctx, key, lifetime); err != nil {
		return fmt.Errorf("renew %s: %w", key, err)
	}
	return nil
}

// removeID deletes the first occurrence of id. A missing id is a no-op;
// the bool tells the caller whether anything was removed.
func removeID(list []string, id string) ([]string, bool) {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}
