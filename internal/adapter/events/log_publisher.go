package events

import (
	"context"
	"log"

	"github.com/rqhall/cowchain-farm/internal/core/domain"
)

// LogPublisher writes events to the process log. Used when no NATS server
// is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	log.Printf("event %s: cow=%s auction=%s owner=%s bidder=%s price=%d tick=%d",
		event.Kind, event.CowID, event.AuctionID, event.Owner, event.Bidder, event.Price, event.Tick)
	return nil
}
