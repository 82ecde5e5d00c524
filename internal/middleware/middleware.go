// Package middleware implements the incoming-message pre-processing chain
// of spec.md §4.8: an ordered, dynamically-mutable list of links, each of
// which must call the continuation to keep the message alive or silently
// drop it by not calling it. The chain fails open on a panicking link.
package middleware

import (
	"github.com/rs/zerolog"

	"github.com/agentx/agentx/pkg/types"
)

// Next continues the chain with a (possibly transformed) message.
type Next func(types.UserMessage)

// Func is one middleware link.
type Func func(msg types.UserMessage, next Next)

// Chain is an ordered, dynamically-mutable list of middleware links.
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

// Run executes the chain against msg. terminal is invoked only if every
// link called its Next; if any link drops the message (never calling
// Next), terminal is never invoked — the documented silent-drop behavior.
func (c *Chain) Run(msg types.UserMessage, terminal func(types.UserMessage)) {
	links := c.links // snapshot: Use during Run must not affect this run
	var step func(int, types.UserMessage)
	step = func(i int, m types.UserMessage) {
		if i >= len(links) {
			terminal(m)
			return
		}
		link := links[i]
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error().Interface("panic", r).Msg("middleware link panicked; failing open")
					step(i+1, m)
				}
			}()
			link(m, func(next types.UserMessage) { step(i+1, next) })
		}()
	}
	step(0, msg)
}
