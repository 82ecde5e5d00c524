// Package bus implements the per-agent typed event bus of spec.md §4.7:
// filter, priority, one-shot subscriptions, and isolated handler dispatch.
//
// The underlying transport is watermill's in-process gochannel, the same
// infrastructure the source repository wires up for its own (global,
// untyped) bus; as in the source, dispatch itself bypasses watermill's
// envelope machinery to preserve direct Go values and synchronous,
// emission-ordered delivery, rather than paying a marshal/unmarshal
// round-trip for every event.
package bus

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/rs/zerolog"
)

// Event is the common envelope for everything flowing through a Bus:
// stream events, state events, message events, turn events and the
// independent error event all pass through the same dispatch machinery.
type Event struct {
	Type      string
	UUID      string
	AgentID   string
	Timestamp int64
	Data      any
}

// Handler receives a dispatched Event.
type Handler func(Event)

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

// Filter decides whether a handler should see a given event.
type Filter func(Event) bool

// Options configures one subscription.
type Options struct {
	Filter   Filter
	Priority int
	Once     bool
}

type subscription struct {
	id       uint64
	types    map[string]bool // nil means "all types" (OnAny)
	handler  Handler
	filter   Filter
	priority int
	once     bool
	seq      uint64 // registration order, for stable priority ties
}

// Bus is one agent's event bus. It is created and destroyed alongside its
// Agent Instance; it is never shared across agents (spec.md §5).
type Bus struct {
	mu   sync.RWMutex
	subs []*subscription

	nextID  uint64
	nextSeq uint64
	closed  bool

	pubsub *gochannel.GoChannel
	log    zerolog.Logger
}

// New creates a fresh, empty Bus for one agent.
func New(log zerolog.Logger) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 100, Persistent: false},
			watermill.NopLogger{},
		),
		log: log,
	}
}

// --- Consumer view ---

// On subscribes handler to one or more event types.
func (b *Bus) On(types []string, handler Handler, opts Options) Unsubscribe {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return b.subscribe(set, handler, opts)
}

// OnAny subscribes handler to every event type.
func (b *Bus) OnAny(handler Handler, opts Options) Unsubscribe {
	return b.subscribe(nil, handler, opts)
}

// Once subscribes handler to a single type; it fires at most once.
func (b *Bus) Once(eventType string, handler Handler) Unsubscribe {
	opts := Options{Once: true}
	return b.subscribe(map[string]bool{eventType: true}, handler, opts)
}

func (b *Bus) subscribe(types map[string]bool, handler Handler, opts Options) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := atomic.AddUint64(&b.nextID, 1)
	seq := b.nextSeq
	b.nextSeq++

	sub := &subscription{
		id:       id,
		types:    types,
		handler:  handler,
		filter:   opts.Filter,
		priority: opts.Priority,
		once:     opts.Once,
		seq:      seq,
	}
	b.subs = append(b.subs, sub)

	return func() { b.remove(id) }
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// --- Producer view ---

// Emit dispatches one event synchronously, in priority order (ties broken
// by registration order), to every matching, non-filtered subscriber.
// Per spec.md §5, emission must not suspend: handlers that need to do I/O
// are expected to hand it off to an independent goroutine themselves.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		b.log.Warn().Str("event_type", ev.Type).Msg("emit on destroyed bus")
		return
	}
	// Snapshot under the read lock: the subscription list may be mutated
	// during dispatch (once-handlers self-remove), so iteration must not
	// observe a live, concurrently-modified slice (spec.md §5).
	matching := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.types == nil || s.types[ev.Type] {
			matching = append(matching, s)
		}
	}
	b.mu.RUnlock()

	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].priority != matching[j].priority {
			return matching[i].priority > matching[j].priority
		}
		return matching[i].seq < matching[j].seq
	})

	var toRemove []uint64
	for _, s := range matching {
		if s.filter != nil && !s.filter(ev) {
			continue
		}
		b.dispatch(s, ev)
		if s.once {
			toRemove = append(toRemove, s.id)
		}
	}
	for _, id := range toRemove {
		b.remove(id)
	}
}

// EmitBatch emits each event in order.
func (b *Bus) EmitBatch(events []Event) {
	for _, ev := range events {
		b.Emit(ev)
	}
}

// dispatch invokes one handler with panic isolation: a misbehaving handler
// must never prevent subsequent subscribers from observing the event
// (spec.md P7).
func (b *Bus) dispatch(s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", ev.Type).
				Msg("event bus handler panicked; isolated")
		}
	}()
	s.handler(ev)
}

// --- Lifecycle ---

// Destroy drops every subscriber and makes subsequent Emit calls no-ops.
func (b *Bus) Destroy() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.subs = nil
	b.mu.Unlock()
	_ = b.pubsub.Close()
}

// PubSub exposes the underlying watermill transport for advanced use
// (e.g. a future distributed backend); ordinary dispatch never uses it.
func (b *Bus) PubSub() *gochannel.GoChannel {
	return b.pubsub
}
