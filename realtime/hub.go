// Package realtime fans leveling events out to live subscribers, typically
// websocket connections watching a tenant's leaderboard.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"levelkit/core"
)

// AllTenants subscribes to every tenant's events.
const AllTenants core.TenantID = 0

type subscriber struct {
	tenant core.TenantID
	ch     chan core.Event
}

// Hub is a pub/sub fan-out with per-tenant filtering. Slow subscribers drop
// events instead of blocking the award path.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]subscriber
	lastID int
}

func NewHub() *Hub { return &Hub{subs: map[int]subscriber{}} }

// Subscribe registers a listener for one tenant's events, or every tenant's
// when tenant is AllTenants. Returns the subscription ID and the receive
// channel.
func (h *Hub) Subscribe(tenant core.TenantID, buffer int) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastID++
	id := h.lastID
	ch := make(chan core.Event, buffer)
	h.subs[id] = subscriber{tenant: tenant, ch: ch}
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Broadcast delivers an event to every subscriber watching its tenant.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	receivers := make([]chan core.Event, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.tenant == AllTenants || sub.tenant == ev.TenantID {
			receivers = append(receivers, sub.ch)
		}
	}
	h.mu.RUnlock()
	for _, ch := range receivers {
		select {
		case ch <- ev:
		default: // full buffer drops
		}
	}
}

// Attach subscribes the hub to an engine bus so every XP and level-up event
// is broadcast. Returns an unsubscribe func covering both event types.
func (h *Hub) Attach(subscribe func(core.EventType, func(context.Context, core.Event)) func()) func() {
	offXP := subscribe(core.EventXPAwarded, h.Broadcast)
	offLevel := subscribe(core.EventLevelUp, h.Broadcast)
	return func() {
		offXP()
		offLevel()
	}
}

// MarshalJSON encodes an event for websocket or SSE transport.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
