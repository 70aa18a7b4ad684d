package stream

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/nimasrn/property-marketplace/pkg/prom"
)

const (
	defaultBuffer = 16

	typeConnected         = "connected"
	typeTransactionUpdate = "transaction_update"
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Subscription is one open stream for a user. C is closed when the
// subscription or the hub is closed.
type Subscription struct {
	C      <-chan []byte
	UserID uuid.UUID

	ch   chan []byte
	hub  *Hub
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// Hub is a per-process registry of live subscriptions keyed by user.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	buffer int
	node   string
	log    logger.Logger
	closed bool
}

func NewHub(node string, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		buffer: buffer,
		node:   node,
		log:    logger.With("node", node),
	}
}

// Subscribe registers a stream for userID. The first frame is the connected
// greeting. It returns nil once the hub is closed.
func (h *Hub) Subscribe(userID uuid.UUID) *Subscription {
	ch := make(chan []byte, h.buffer)
	sub := &Subscription{C: ch, UserID: userID, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	ch <- mustEncode(envelope{Type: typeConnected})
	prom.AddSubscribers(h.node, 1)
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.UserID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.UserID)
	}
	close(sub.ch)
	prom.AddSubscribers(h.node, -1)
}

// Publish hands payload to every subscription of userID and returns how many
// took it. A subscriber whose buffer is full misses the frame.
func (h *Hub) Publish(userID uuid.UUID, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- payload:
			delivered++
		default:
			h.log.Warn("[stream] subscriber too slow, frame dropped", "user_id", userID)
		}
	}
	return delivered
}

// Broadcast sends ev to each of its recipients.
func (h *Hub) Broadcast(ev *model.TransactionEvent) int {
	payload, err := json.Marshal(envelope{Type: typeTransactionUpdate, Data: ev})
	if err != nil {
		h.log.Error("[stream] encode event failed", "event_id", ev.ID, "err", err)
		return 0
	}
	delivered := 0
	for _, id := range ev.Recipients {
		delivered += h.Publish(id, payload)
	}
	return delivered
}

func (h *Hub) Count(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close ends every subscription. Later Subscribe calls return nil.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for userID, set := range h.subs {
		for sub := range set {
			close(sub.ch)
			prom.AddSubscribers(h.node, -1)
		}
		delete(h.subs, userID)
	}
}

func mustEncode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
