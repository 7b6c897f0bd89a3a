package domain

type EventKind string

const (
	EventBuy      EventKind = "buy"
	EventSell     EventKind = "sell"
	EventFeed     EventKind = "feed"
	EventRegister EventKind = "register"
	EventRefund   EventKind = "refund"
	EventAuction  EventKind = "auction"
)

// Event is the structured notification published after a successful
// mutation. Fire-and-forget: it never affects the outcome of the call
// that produced it.
type Event struct {
	Kind      EventKind `json:"kind"`
	CowID     string    `json:"cow_id,omitempty"`
	CowName   string    `json:"cow_name,omitempty"`
	AuctionID string    `json:"auction_id,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Bidder    string    `json:"bidder,omitempty"`
	Price     int64     `json:"price,omitempty"`
	Tick      uint64    `json:"tick"`
}
