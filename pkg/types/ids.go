// Package types defines the core AgentX data model: Definitions, Images,
// Sessions, Agents, Containers and the Message discriminated union.
package types

import (
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// ID prefixes, kept human-recognizable the way the source repository prefixes
// its own identifiers (session IDs, message IDs, etc).
const (
	PrefixAgent     = "agent_"
	PrefixSession   = "session_"
	PrefixImage     = "image_"
	PrefixContainer = "container_"
	PrefixMessage   = "msg_"
	PrefixCall      = "call_"
	PrefixEvent     = "evt_"
)

// NewID returns a globally unique, lexically sortable identifier with the
// given prefix. Collision is a defect: ULID's 80 bits of randomness per
// millisecond make that practically impossible within one process.
func NewID(prefix string) string {
	id, err := ulid.New(ulid.Now(), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		// ulid.Monotonic only errors on entropy exhaustion; fall back to a
		// fresh non-monotonic ULID rather than panic a running agent.
		id = ulid.Make()
	}
	return fmt.Sprintf("%s%s", prefix, id.String())
}
