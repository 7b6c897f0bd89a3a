package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rqhall/cowchain-farm/internal/core/domain"
)

// MySQLArchiver appends every published event to the farm_events table:
//
//	CREATE TABLE farm_events (
//	    id         CHAR(36) PRIMARY KEY,
//	    kind       VARCHAR(16) NOT NULL,
//	    cow_id     VARCHAR(64),
//	    cow_name   VARCHAR(64),
//	    auction_id VARCHAR(64),
//	    owner      VARCHAR(64),
//	    bidder     VARCHAR(64),
//	    price      BIGINT NOT NULL DEFAULT 0,
//	    tick       BIGINT UNSIGNED NOT NULL,
//	    created_at DATETIME NOT NULL,
//	    KEY idx_cow (cow_id),
//	    KEY idx_auction (auction_id)
//	);
type MySQLArchiver struct {
	db *sql.DB
}

func NewMySQLArchiver(db *sql.DB) *MySQLArchiver {
	return &MySQLArchiver{db: db}
}

func (a *MySQLArchiver) ArchiveEvent(ctx context.Context, event domain.Event) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO farm_events (id, kind, cow_id, cow_name, auction_id, owner, bidder, price, tick, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(event.Kind), event.CowID, event.CowName,
		event.AuctionID, event.Owner, event.Bidder, event.Price, event.Tick,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// CountEvents returns how many events of a kind were archived for a cow.
func (a *MySQLArchiver) CountEvents(ctx context.Context, cowID string, kind domain.EventKind) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM farm_events WHERE cow_id = ? AND kind = ?`,
		cowID, string(kind),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
