package types

// Lifecycle is the coarse running/destroyed state of an Agent.
type Lifecycle string

const (
	LifecycleRunning   Lifecycle = "running"
	LifecycleDestroyed Lifecycle = "destroyed"
)

// AgentState is the conversation-level state machine driven exclusively by
// State events (spec.md §4.4).
type AgentState string

const (
	StateIdle               AgentState = "idle"
	StateQueued             AgentState = "queued"
	StateThinking           AgentState = "thinking"
	StateResponding         AgentState = "responding"
	StatePlanningTool       AgentState = "planning_tool"
	StateAwaitingToolResult AgentState = "awaiting_tool_result"
	StateInitializing       AgentState = "initializing"
)

// Agent is the transient runtime binding of a Definition to a live
// execution context. Never persisted: it is reconstructed from its Image
// by Container.run/resume.
type Agent struct {
	AgentID     string     `json:"agentId"`
	ImageID     string     `json:"imageId"`
	ContainerID string     `json:"containerId"`
	Lifecycle   Lifecycle  `json:"lifecycle"`
	State       AgentState `json:"state"`
	CreatedAt   int64      `json:"createdAt"`
}
