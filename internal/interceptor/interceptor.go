// Package interceptor implements the outgoing-event pre-dispatch chain of
// spec.md §4.8. It sits between Engine output and Event Bus emission:
// the same ordered, dynamically-mutable, fail-open chain shape as
// middleware, but over bus.Event instead of a user message.
package interceptor

import (
	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/bus"
)

// Next continues the chain with a (possibly transformed) event.
type Next func(bus.Event)

// Func is one interceptor link.
type Func func(ev bus.Event, next Next)

// Chain is an ordered, dynamically-mutable list of interceptor links.
type Chain struct {
	links []Func
	log   zerolog.Logger
}

// New creates an empty chain.
func New(log zerolog.Logger) *Chain {
	return &Chain{log: log}
}

// Use appends a link to the end of the chain.
func (c *Chain) Use(fn Func) {
	c.links = append(c.links, fn)
}

// Run executes the chain against ev. terminal is skipped if a link
// short-circuits (never calls Next) — the event is dropped from
// subscribers, though upstream Engine state has already mutated.
func (c *Chain) Run(ev bus.Event, terminal func(bus.Event)) {
	links := c.links
	var step func(int, bus.Event)
	step = func(i int, e bus.Event) {
		if i >= len(links) {
			terminal(e)
			return
		}
		link := links[i]
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error().Interface("panic", r).Str("event_type", e.Type).Msg("interceptor link panicked; failing open")
					step(i+1, e)
				}
			}()
			link(e, func(next bus.Event) { step(i+1, next) })
		}()
	}
	step(0, ev)
}
