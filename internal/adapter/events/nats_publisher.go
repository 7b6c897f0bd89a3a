package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/rqhall/cowchain-farm/internal/core/domain"
)

const (
	streamName    = "FARM_EVENTS"
	subjectPrefix = "farm.events."
)

// NATSPublisher publishes farm events to a JetStream stream so external
// listeners (indexers, notification fanout) can consume them.
type NATSPublisher struct {
	js jetstream.JetStream
}

func NewNATSPublisher(nc *nats.Conn) (*NATSPublisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + "*"},
		Storage:  jetstream.FileStorage,
		MaxAge:   24 * time.Hour,
		Replicas: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NATSPublisher{js: js}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := p.js.Publish(ctx, subjectPrefix+string(event.Kind), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
