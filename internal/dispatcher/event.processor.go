package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/property-marketplace/internal/events"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/queue"
	"github.com/nimasrn/property-marketplace/pkg/kafka"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/nimasrn/property-marketplace/pkg/prom"
)

// Sink receives every dispatched event.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev *model.TransactionEvent) error
}

// KafkaSink writes events to the configured topic keyed by transaction, or by
// property when there is no transaction yet.
type KafkaSink struct {
	producer *kafka.Producer
}

func NewKafkaSink(producer *kafka.Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Publish(ctx context.Context, ev *model.TransactionEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := ev.PropertyID.String()
	if ev.TransactionID != nil {
		key = ev.TransactionID.String()
	}
	return k.producer.Publish(ctx, key, value, map[string]string{
		events.MetaType:    string(ev.Type),
		events.MetaEventID: ev.ID.String(),
	})
}

// Publisher is the pub/sub fan-out to API nodes.
type Publisher interface {
	Publish(ctx context.Context, ev *model.TransactionEvent) error
}

type pubSubSink struct {
	pub Publisher
}

func NewPubSubSink(pub Publisher) Sink {
	return pubSubSink{pub: pub}
}

func (p pubSubSink) Name() string { return "pubsub" }

func (p pubSubSink) Publish(ctx context.Context, ev *model.TransactionEvent) error {
	return p.pub.Publish(ctx, ev)
}

// EventProcessor decodes queued events and hands each one to every sink
// exactly once per successful attempt.
type EventProcessor struct {
	sinks       []Sink
	idempotency *IdempotencyService
}

func NewEventProcessor(idempotency *IdempotencyService, sinks ...Sink) *EventProcessor {
	return &EventProcessor{sinks: sinks, idempotency: idempotency}
}

func (p *EventProcessor) GetType() string {
	return "transaction-event"
}

func (p *EventProcessor) Process(ctx context.Context, msg *queue.Message) error {
	ev, err := events.Decode(msg.Data)
	if err != nil {
		// a malformed entry never decodes on retry either
		logger.Error("[dispatcher] dropping malformed event", "queue_id", msg.ID, "err", err)
		prom.ObserveDispatch("unknown", "malformed", 0)
		return nil
	}
	eventID := ev.ID.String()

	pc, err := p.idempotency.AcquireProcessingLock(ctx, eventID)
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		logger.Info("[dispatcher] event already dispatched", "event_id", eventID)
		prom.ObserveDispatch(string(ev.Type), "duplicate", 0)
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		logger.Error("[dispatcher] giving up on event", "event_id", eventID, "type", ev.Type)
		prom.ObserveDispatch(string(ev.Type), "abandoned", 0)
		return nil
	case err != nil:
		return err
	}

	start := time.Now()
	if err := p.dispatch(ctx, ev); err != nil {
		if markErr := p.idempotency.MarkFailure(ctx, pc, err); markErr != nil {
			logger.Error("[dispatcher] mark failure failed", "event_id", eventID, "err", markErr)
		}
		prom.ObserveDispatch(string(ev.Type), "failed", time.Since(start))
		return err
	}

	if err := p.idempotency.MarkSuccess(ctx, pc); err != nil {
		logger.Error("[dispatcher] mark success failed", "event_id", eventID, "err", err)
	}
	prom.ObserveDispatch(string(ev.Type), "ok", time.Since(start))
	logger.Debug("[dispatcher] event dispatched",
		"event_id", eventID,
		"type", ev.Type,
		"recipients", len(ev.Recipients),
		"retry_count", pc.RetryCount)
	return nil
}

func (p *EventProcessor) dispatch(ctx context.Context, ev *model.TransactionEvent) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
