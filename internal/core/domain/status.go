package domain

// Status is the outcome of an operation. Domain outcomes are status values,
// not Go errors; errors are reserved for store and payment-rail failures.
type Status string

const (
	StatusOk                 Status = "ok"
	StatusFail               Status = "fail"
	StatusTryAgain           Status = "try_again"
	StatusNotInitialized     Status = "not_initialized"
	StatusAlreadyInitialized Status = "already_initialized"
	StatusNotFound           Status = "not_found"
	StatusDuplicate          Status = "duplicate"
	StatusInsufficientFund   Status = "insufficient_fund"
	StatusUnderage           Status = "underage"
	StatusMissingOwnership   Status = "missing_ownership"
	StatusOnAuction          Status = "on_auction"
	StatusFullStomach        Status = "full_stomach"
	StatusBidIsOpen          Status = "bid_is_open"
	StatusBidIsClosed        Status = "bid_is_closed"
	StatusCannotBidLower     Status = "cannot_bid_lower"
)
