package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/nimasrn/property-marketplace/pkg/redis"
)

// Bridge carries events between processes over a Redis pub/sub channel.
// Publish is used by the dispatcher; Run feeds a local Hub on API nodes.
type Bridge struct {
	adapter redis.RedisAdapter
	channel string
	hub     *Hub
}

func NewBridge(adapter redis.RedisAdapter, channel string, hub *Hub) *Bridge {
	return &Bridge{adapter: adapter, channel: channel, hub: hub}
}

func (b *Bridge) Publish(ctx context.Context, ev *model.TransactionEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.adapter.Publish(ctx, b.channel, raw); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Run subscribes to the channel and broadcasts every event to the hub until
// ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	if b.hub == nil {
		return errors.New("bridge has no hub to deliver to")
	}
	ps := b.adapter.Subscribe(ctx, b.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	logger.Info("[stream] bridge subscribed", "channel", b.channel)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev model.TransactionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("[stream] malformed event on channel", "channel", b.channel, "err", err)
				continue
			}
			b.hub.Broadcast(&ev)
		}
	}
}
