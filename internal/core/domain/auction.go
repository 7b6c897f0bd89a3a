package domain

// Bidder is one bid: who and how much, in whole units.
type Bidder struct {
	User  string `json:"user"`
	Price int64  `json:"price"`
}

// Auction is a per-cow sealed-style ascending auction. At registration the
// highest bidder is a placeholder holding the seller and the start price,
// meaning no real bid has been placed yet.
type Auction struct {
	ID            string   `json:"id"`
	CowID         string   `json:"cow_id"`
	CowName       string   `json:"cow_name"`
	CowBreed      Breed    `json:"cow_breed"`
	CowBornTick   uint64   `json:"cow_born_tick"`
	Owner         string   `json:"owner"`
	StartPrice    int64    `json:"start_price"`
	HighestBidder Bidder   `json:"highest_bidder"`
	BidHistory    []Bidder `json:"bid_history"`
	DeadlineTick  uint64   `json:"deadline_tick"`
}

// NewAuction creates the record with the seller placeholder bid and a
// 12-hour bidding window fixed at registration.
func NewAuction(id string, cow Cow, owner string, startPrice int64, now uint64) Auction {
	return Auction{
		ID:          id,
		CowID:       cow.ID,
		CowName:     cow.Name,
		CowBreed:    cow.Breed,
		CowBornTick: cow.BornTick,
		Owner:       owner,
		StartPrice:  startPrice,
		HighestBidder: Bidder{
			User:  owner,
			Price: startPrice,
		},
		DeadlineTick: now + TicksIn12Hours,
	}
}

// HasRealBid reports whether the highest bid is anything other than the
// seller placeholder. A seller outbidding on their own auction reads as the
// placeholder too, so their escrow is not refunded when they are outbid.
func (a Auction) HasRealBid() bool {
	return a.HighestBidder.User != a.Owner
}

// Closed reports whether the bidding window has passed.
func (a Auction) Closed(now uint64) bool {
	return now > a.DeadlineTick
}
