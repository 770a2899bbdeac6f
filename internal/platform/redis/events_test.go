package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

func TestNewBusRequiresAddr(t *testing.T) {
	if _, err := NewBus(context.Background(), logger.Nop(), Config{}); err == nil {
		t.Fatalf("NewBus: want error without addr")
	}
}

func TestBusPublishSubscribe(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, err := NewBus(ctx, logger.Nop(), Config{Addr: addr, Channel: "carepulse.test"})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer b.Close()

	got := make(chan Event, 1)
	if err := b.Subscribe(ctx, func(ev Event) { got <- ev }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := b.Publish(ctx, Event{Type: "moment.processed", EntityType: "moment", EntityID: "m1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case ev := <-got:
		if ev.Type != "moment.processed" || ev.EntityID != "m1" || ev.At.IsZero() {
			t.Fatalf("event: got=%+v", ev)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for event")
	}
}
