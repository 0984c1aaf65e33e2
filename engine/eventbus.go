package engine

import (
	"context"
	"sync"

	"levelkit/core"
)

// DispatchMode selects how Publish delivers events to handlers.
type DispatchMode int

const (
	// DispatchSync runs handlers inline on the publishing goroutine.
	DispatchSync DispatchMode = iota
	// DispatchAsync queues events to a worker pool; Publish never blocks and
	// drops events when the queue is full.
	DispatchAsync
)

const (
	asyncQueueSize = 1024
	asyncWorkers   = 4
)

type handlerEntry struct {
	id int64
	fn func(context.Context, core.Event)
}

// EventBus is a small typed pub/sub used for XP and level-up notifications.
type EventBus struct {
	mode DispatchMode

	mu       sync.RWMutex
	handlers map[core.EventType][]handlerEntry
	lastID   int64

	queue chan core.Event
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewEventBus builds a bus in the given mode. Async buses start their
// workers immediately and must be Closed when done.
func NewEventBus(mode DispatchMode) *EventBus {
	b := &EventBus{
		mode:     mode,
		handlers: make(map[core.EventType][]handlerEntry),
		queue:    make(chan core.Event, asyncQueueSize),
		done:     make(chan struct{}),
	}
	if mode == DispatchAsync {
		for i := 0; i < asyncWorkers; i++ {
			b.wg.Add(1)
			go b.worker()
		}
	}
	return b
}

func (b *EventBus) worker() {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.queue:
			b.deliver(context.Background(), ev)
		case <-b.done:
			return
		}
	}
}

// Close stops async workers and waits for them to exit. Safe to call more
// than once; a no-op for sync buses.
func (b *EventBus) Close() {
	b.once.Do(func() { close(b.done) })
	b.wg.Wait()
}

// Subscribe registers a handler for one event type and returns its
// unsubscribe function.
func (b *EventBus) Subscribe(typ core.EventType, fn func(context.Context, core.Event)) func() {
	b.mu.Lock()
	b.lastID++
	id := b.lastID
	b.handlers[typ] = append(b.handlers[typ], handlerEntry{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[typ]
		for i, entry := range entries {
			if entry.id == id {
				b.handlers[typ] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers an event per the bus's dispatch mode.
func (b *EventBus) Publish(ctx context.Context, ev core.Event) {
	if b.mode == DispatchAsync {
		select {
		case b.queue <- ev:
		default:
			// full queue drops the event rather than stalling the award path
		}
		return
	}
	b.deliver(ctx, ev)
}

func (b *EventBus) deliver(ctx context.Context, ev core.Event) {
	b.mu.RLock()
	entries := b.handlers[ev.Type]
	fns := make([]func(context.Context, core.Event), len(entries))
	for i, entry := range entries {
		fns[i] = entry.fn
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, ev)
	}
}
