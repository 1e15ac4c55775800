package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/types"
)

func TestEventBusPublish(t *testing.T) {
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	defer srv.Close()

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	bus, err := NewEventBus(log, srv.Addr(), "governance-test")
	if err != nil {
		t.Fatalf("NewEventBus: %v", err)
	}
	defer bus.Close()

	sub := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	defer sub.Close()
	ps := sub.Subscribe(context.Background(), "governance-test")
	defer ps.Close()
	if _, err := ps.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := Event{
		Action:     EventApproved,
		PolicyCode: "RETENTION_CLINICAL_RECORDS",
		VersionID:  uuid.New(),
		Version:    3,
		Scope:      types.ScopeGlobal,
	}
	if err := bus.Publish(context.Background(), want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-ps.Channel():
		var got Event
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if got.Action != want.Action {
			t.Fatalf("action: want=%q got=%q", want.Action, got.Action)
		}
		if got.VersionID != want.VersionID {
			t.Fatalf("version id: want=%s got=%s", want.VersionID, got.VersionID)
		}
		if got.At.IsZero() {
			t.Fatalf("publish must stamp At when unset")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
	}
}

func TestNewEventBusRequiresAddr(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	if _, err := NewEventBus(log, "", "governance"); err == nil {
		t.Fatalf("NewEventBus: expected error for empty addr")
	}
}
