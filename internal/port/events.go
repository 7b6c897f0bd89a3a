package port

import (
	"context"

	"github.com/rqhall/cowchain-farm/internal/core/domain"
)

// EventPublisher delivers fire-and-forget notifications to external
// listeners. Failures are logged, never propagated.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Archiver persists events to durable storage for offline inspection.
type Archiver interface {
	ArchiveEvent(ctx context.Context, event domain.Event) error
}
