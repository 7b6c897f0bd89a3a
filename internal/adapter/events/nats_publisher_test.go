package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/rqhall/cowchain-farm/internal/core/domain"
)

func getNATSConn(t *testing.T) *nats.Conn {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url, nats.Timeout(2*time.Second))
	if err != nil {
		t.Skipf("NATS not available: %v", err)
	}
	return nc
}

func TestNATSPublisher(t *testing.T) {
	nc := getNATSConn(t)
	defer nc.Close()

	publisher, err := NewNATSPublisher(nc)
	if err != nil {
		t.Fatalf("create publisher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := domain.Event{
		Kind:  domain.EventBuy,
		CowID: "test-cow-nats",
		Owner: "alice",
		Price: 1000,
		Tick:  7,
	}
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	// The stream must exist and have accepted the message.
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream context: %v", err)
	}
	stream, err := js.Stream(ctx, streamName)
	if err != nil {
		t.Fatalf("stream lookup: %v", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		t.Fatalf("stream info: %v", err)
	}
	if info.State.Msgs == 0 {
		t.Error("stream is empty after publish")
	}
}

func TestLogPublisher(t *testing.T) {
	publisher := NewLogPublisher()
	err := publisher.Publish(context.Background(), domain.Event{Kind: domain.EventFeed, CowID: "c1"})
	if err != nil {
		t.Errorf("publish failed: %v", err)
	}
}
