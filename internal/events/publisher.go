package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nimasrn/property-marketplace/internal/model"
)

const (
	MetaType    = "type"
	MetaEventID = "eventId"
)

// Enqueuer is the write side of the event queue.
type Enqueuer interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// Publisher puts domain events on the queue the dispatcher drains.
type Publisher struct {
	queue Enqueuer
}

func NewPublisher(queue Enqueuer) *Publisher {
	return &Publisher{queue: queue}
}

func (p *Publisher) Emit(ctx context.Context, ev *model.TransactionEvent) error {
	_, err := p.queue.PublishJSON(ctx, ev, map[string]string{
		MetaType:    string(ev.Type),
		MetaEventID: ev.ID.String(),
	})
	if err != nil {
		return fmt.Errorf("enqueue %s event: %w", ev.Type, err)
	}
	return nil
}

// Decode reads an event written by Emit.
func Decode(data []byte) (*model.TransactionEvent, error) {
	var ev model.TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("decode event: missing type")
	}
	return &ev, nil
}
