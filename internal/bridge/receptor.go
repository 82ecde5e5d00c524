package bridge

import (
	"strings"

	"github.com/rs/zerolog"
)

// InboundHandler processes one inbound Frame, routing it to the
// appropriate agent/session/container operation and returning the Frame
// to reply with, if any (spec.md §4.12: "the server replies with a
// matching *_response event echoing requestId").
type InboundHandler func(Frame) (Frame, bool)

// Receptor subscribes to a Channel and routes every inbound frame to an
// InboundHandler, replying on the same Channel when the handler produces
// a response (spec.md §4.12).
type Receptor struct {
	channel Channel
	handle  InboundHandler
	log     zerolog.Logger
}

// NewReceptor builds a Receptor bound to one Channel.
func NewReceptor(ch Channel, handle InboundHandler, log zerolog.Logger) *Receptor {
	return &Receptor{channel: ch, handle: handle, log: log}
}

// IsInboundType reports whether a frame type is one of the recognized
// inbound request types: user_message_request, agent_interrupt_request,
// or any other *_request frame. Bare user_message and interrupt_agent
// frames are not recognized.
func IsInboundType(t string) bool {
	switch t {
	case InUserMessageRequest, InAgentInterruptRequest:
		return true
	}
	return strings.HasSuffix(t, "_request")
}

// Run reads frames from the Channel until it closes or errors, handling
// each recognized inbound type and discarding anything else with a
// warning. Run blocks; call it from its own goroutine.
func (r *Receptor) Run() {
	for {
		frame, err := r.channel.Recv()
		if err != nil {
			r.log.Info().Err(err).Msg("bridge receptor: channel closed")
			return
		}

		if !IsInboundType(frame.Type) {
			r.log.Warn().Str("type", frame.Type).Msg("bridge receptor: dropping unrecognized inbound frame")
			continue
		}

		resp, ok := r.handle(frame)
		if !ok {
			continue
		}
		if err := r.channel.Send(resp); err != nil {
			r.log.Warn().Err(err).Msg("bridge receptor: failed to send response")
		}
	}
}
