package permission

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/agentx/agentx/internal/bus"
)

// PermissionRequired and PermissionResolved are the bus event types the
// Checker emits; a Network Bridge or server handler relays them to the
// out-of-scope approval UI and calls Respond with the user's decision.
const (
	PermissionRequired = "permission_required"
	PermissionResolved = "permission_resolved"
)

// RequiredData is the payload of a PermissionRequired bus event.
type RequiredData struct {
	ID      string
	AgentID string
	Type    PermissionType
	Pattern []string
	Title   string
}

// ResolvedData is the payload of a PermissionResolved bus event.
type ResolvedData struct {
	ID      string
	Granted bool
}

// Checker handles permission checks and approvals, one instance per Agent,
// publishing prompts and resolutions onto that Agent's Event Bus instead of
// a process-global channel.
type Checker struct {
	bus *bus.Bus

	mu       sync.RWMutex
	approved map[PermissionType]bool
	patterns map[string]bool
	pending  map[string]chan Response
}

// NewChecker creates a permission checker bound to an Agent's Event Bus.
func NewChecker(b *bus.Bus) *Checker {
	return &Checker{
		bus:      b,
		approved: make(map[PermissionType]bool),
		patterns: make(map[string]bool),
		pending:  make(map[string]chan Response),
	}
}

// Check performs a permission check based on action configuration.
func (c *Checker) Check(ctx context.Context, req Request, action PermissionAction) error {
	switch action {
	case ActionAllow:
		return nil
	case ActionDeny:
		return &RejectedError{AgentID: req.AgentID, Type: req.Type, CallID: req.CallID, Metadata: req.Metadata, Message: "permission denied by configuration"}
	case ActionAsk:
		return c.Ask(ctx, req)
	}
	return nil
}

// Ask prompts the user for permission, blocking until a response arrives on
// the bus or ctx is cancelled.
func (c *Checker) Ask(ctx context.Context, req Request) error {
	c.mu.RLock()
	if c.approved[req.Type] {
		c.mu.RUnlock()
		return nil
	}
	if len(req.Pattern) > 0 {
		allApproved := true
		for _, p := range req.Pattern {
			if !c.patterns[p] {
				allApproved = false
				break
			}
		}
		if allApproved {
			c.mu.RUnlock()
			return nil
		}
	}
	c.mu.RUnlock()

	if req.ID == "" {
		req.ID = ulid.Make().String()
	}

	respChan := make(chan Response, 1)
	c.mu.Lock()
	c.pending[req.ID] = respChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	c.bus.Emit(bus.Event{
		Type:    PermissionRequired,
		AgentID: req.AgentID,
		Data: RequiredData{
			ID: req.ID, AgentID: req.AgentID, Type: req.Type, Pattern: req.Pattern, Title: req.Title,
		},
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-respChan:
		switch resp.Action {
		case "once":
			return nil
		case "always":
			c.approve(req.Type, req.Pattern)
			return nil
		case "reject":
			return &RejectedError{AgentID: req.AgentID, Type: req.Type, CallID: req.CallID, Metadata: req.Metadata, Message: "permission rejected by user"}
		}
	}
	return nil
}

// Respond delivers a user's response to a pending request, identified by
// the ID the PermissionRequired event carried.
func (c *Checker) Respond(requestID string, action string) {
	c.mu.RLock()
	ch, ok := c.pending[requestID]
	c.mu.RUnlock()

	if ok {
		ch <- Response{RequestID: requestID, Action: action}
	}

	c.bus.Emit(bus.Event{
		Type: PermissionResolved,
		Data: ResolvedData{ID: requestID, Granted: action != "reject"},
	})
}

func (c *Checker) approve(permType PermissionType, patterns []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.approved[permType] = true
	for _, p := range patterns {
		c.patterns[p] = true
	}
}

// IsApproved reports whether a permission type has blanket approval.
func (c *Checker) IsApproved(permType PermissionType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.approved[permType]
}

// IsPatternApproved reports whether a specific pattern has approval.
func (c *Checker) IsPatternApproved(pattern string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.patterns[pattern]
}

// ClearSession clears all approvals, called when the owning Agent is
// destroyed so a resumed Agent starts from a clean approval state.
func (c *Checker) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.approved = make(map[PermissionType]bool)
	c.patterns = make(map[string]bool)
}

// ApprovePattern explicitly approves a pattern ahead of any Ask call.
func (c *Checker) ApprovePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns[pattern] = true
}
