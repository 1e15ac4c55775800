package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/types"
)

// Event is a governance lifecycle notification. The embedding console's
// notification layer consumes these to surface "pending approval" and
// "policy changed" toasts; this service only publishes.
type Event struct {
	Action     string            `json:"action"`
	PolicyCode string            `json:"policy_code"`
	VersionID  uuid.UUID         `json:"version_id"`
	Version    int               `json:"version"`
	Scope      types.PolicyScope `json:"scope"`
	BranchID   *uuid.UUID        `json:"branch_id,omitempty"`
	At         time.Time         `json:"at"`
}

const (
	EventDraftCreated = "policy.draft_created"
	EventSubmitted    = "policy.submitted"
	EventApproved     = "policy.approved"
	EventRejected     = "policy.rejected"
)

type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type eventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewEventBus(log *logger.Logger, addr, channel string) (EventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "governance"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &eventBus{
		log:     log.With("service", "GovernanceEventBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *eventBus) Publish(ctx context.Context, event Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("event bus not initialized")
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal governance event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish governance event: %w", err)
	}
	return nil
}

func (b *eventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
