// Package permission provides a permission control system for tool
// execution by an Agent's Driver. It manages user consent for potentially
// dangerous operations like file editing, web fetching, external directory
// access, and bash command execution.
//
// # Overview
//
// The permission system operates per-Agent: each Agent Instance owns its
// own Checker, bound to that Agent's Event Bus, so approvals never leak
// across Agents. It supports three main permission actions:
//   - Allow: Automatically approve the operation
//   - Deny: Automatically reject the operation
//   - Ask: Prompt the user for consent
//
// # Permission Types
//
// The system handles several types of operations:
//
//   - Bash: Command execution with pattern-based matching
//   - Edit: File modification operations
//   - WebFetch: External web resource access
//   - ExternalDir: Operations outside the working directory
//   - DoomLoop: Detection and prevention of infinite tool call loops
//
// # Core Components
//
// ## Checker
//
// The Checker is the central component that manages permission requests and
// approvals for one Agent. It maintains approval state and handles user
// prompts by emitting events onto the Agent's Bus rather than a
// process-global channel.
//
//	checker := NewChecker(agentBus)
//	req := Request{
//		Type:    PermBash,
//		AgentID: agent.ID,
//		Pattern: []string{"git *"},
//		Title:   "Execute git command",
//	}
//	err := checker.Check(ctx, req, ActionAsk)
//
// ## Bash Command Parsing
//
// The system includes sophisticated bash command parsing that extracts command names,
// arguments, and subcommands for fine-grained permission control:
//
//	commands, err := ParseBashCommand("git commit -m 'fix bug'")
//	// Returns: BashCommand{Name: "git", Subcommand: "commit", Args: ["commit", "-m", "fix bug"]}
//
// ## Pattern Matching
//
// Bash permissions support wildcard patterns with hierarchical matching:
//   - "git commit *" - Matches git commit with any arguments
//   - "git *" - Matches any git subcommand
//   - "git" - Matches git command exactly
//   - "*" - Matches any command
//
// ## Doom Loop Detection
//
// The DoomLoopDetector prevents infinite loops by tracking tool call patterns:
//
//	detector := NewDoomLoopDetector()
//	isLoop := detector.Check(agentID, "bash", commandInput)
//	if isLoop {
//		// Handle potential infinite loop
//	}
//
// # Permission Configuration
//
// AgentPermissions defines the permission policy for an agent:
//
//	permissions := AgentPermissions{
//		Edit:        ActionAsk,
//		WebFetch:    ActionAllow,
//		ExternalDir: ActionDeny,
//		DoomLoop:    ActionAsk,
//		Bash: map[string]PermissionAction{
//			"git *":  ActionAllow,
//			"rm *":   ActionAsk,
//			"sudo *": ActionDeny,
//		},
//	}
//
// # Approval State
//
// The Checker maintains approval state for the lifetime of the owning
// Agent. When a user grants "always" permission, it's remembered until the
// Agent is destroyed:
//
//	// Clear all approvals, e.g. when the Agent is destroyed
//	checker.ClearSession()
//
//	// Check if permission is already approved
//	if checker.IsApproved(PermBash) {
//		// Skip asking user
//	}
//
// # Error Handling
//
// Permission denials are represented by RejectedError, which includes context
// about the denied operation:
//
//	if err != nil && IsRejectedError(err) {
//		rejErr := err.(*RejectedError)
//		log.Printf("Permission denied for %s: %s", rejErr.Type, rejErr.Message)
//	}
//
// # Bus Integration
//
// The permission system integrates with the Event Bus to notify a Network
// Bridge or server handler about permission requests and resolutions,
// enabling real-time user interaction through web interfaces or other UI
// systems. Respond delivers the resulting decision back to the blocked Ask
// call.
//
// # Security Considerations
//
// The permission system is designed with security in mind:
//   - All bash commands are parsed and validated
//   - Pattern matching prevents bypass through command variations
//   - Doom loop detection prevents resource exhaustion
//   - Per-Agent Checkers prevent permission escalation across agents
//   - External directory access is explicitly controlled
//
// # Thread Safety
//
// All components in this package are thread-safe and can be used
// concurrently, though a single Checker is expected to serve only its own
// Agent's Driver.
package permission
