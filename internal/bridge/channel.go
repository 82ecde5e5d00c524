package bridge

import "sync"

// StateHandler observes a Channel's connection-state transitions.
type StateHandler func(ConnState)

// Channel is an ordered, reliable, bidirectional stream of typed events
// with explicit connection states and a state-change subscription
// (spec.md §4.12). WSChannel is the sole production implementation, over
// gorilla/websocket; a test fake can satisfy this interface without a
// socket.
type Channel interface {
	Send(Frame) error
	Recv() (Frame, error)
	State() ConnState
	OnStateChange(StateHandler) func()
	Close() error
}

// stateTracker is embedded by Channel implementations to provide the
// common state-change subscription bookkeeping.
type stateTracker struct {
	mu     sync.Mutex
	state  ConnState
	subs   map[int]StateHandler
	nextID int
}

func newStateTracker(initial ConnState) *stateTracker {
	return &stateTracker{state: initial, subs: make(map[int]StateHandler)}
}

func (t *stateTracker) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *stateTracker) OnStateChange(h StateHandler) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = h
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *stateTracker) setState(s ConnState) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	handlers := make([]StateHandler, 0, len(t.subs))
	for _, h := range t.subs {
		handlers = append(handlers, h)
	}
	t.mu.Unlock()

	for _, h := range handlers {
		h(s)
	}
}
