// Package agentrt implements the Agent Instance of spec.md §4.9: the
// stateful runtime binding of one Driver to one agent's Event Bus,
// Engine, middleware/interceptor chains and conversation state machine.
// An Agent Instance is never persisted — it is reconstructed by
// internal/container.Container.run/resume from the Image it was built
// against.
package agentrt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/agenterr"
	"github.com/agentx/agentx/internal/agentevent"
	"github.com/agentx/agentx/internal/bus"
	"github.com/agentx/agentx/internal/driver"
	"github.com/agentx/agentx/internal/engine"
	"github.com/agentx/agentx/internal/errmgr"
	"github.com/agentx/agentx/internal/interceptor"
	"github.com/agentx/agentx/internal/middleware"
	"github.com/agentx/agentx/internal/permission"
	"github.com/agentx/agentx/internal/streamevent"
	"github.com/agentx/agentx/pkg/types"
)

// PersistFunc is called whenever the Driver reports an updated resume
// cursor, so the owning Container can write it back onto the Image
// (spec.md §4.10: "a callback that persists any Driver-produced resume
// cursor back into the Image").
type PersistFunc func(driverState map[string]any)

// DestroyHandler is notified when an Agent Instance is destroyed.
type DestroyHandler func(agentID string)

// Agent is one running conversation (spec.md §4.9).
type Agent struct {
	AgentID     string
	Definition  types.Definition
	ContainerID string
	ImageID     string
	CreatedAt   int64

	Bus         *bus.Bus
	Middleware  *middleware.Chain
	Interceptor *interceptor.Chain
	Permission  *permission.Checker

	engine  *engine.Engine
	driver  driver.Driver
	persist PersistFunc
	errMgr  *errmgr.Manager
	log     zerolog.Logger

	mu          sync.Mutex
	lifecycle   types.Lifecycle
	state       types.AgentState
	history     []types.Message
	driverState map[string]any

	destroySubs []DestroyHandler
	cancelTurn  context.CancelFunc
}

// Config bundles the collaborators an Agent Instance is built from.
type Config struct {
	AgentID     string
	Definition  types.Definition
	ContainerID string
	ImageID     string
	History     []types.Message
	DriverState map[string]any
	CreatedAt   int64

	Driver  driver.Driver
	Persist PersistFunc
	ErrMgr  *errmgr.Manager
	Log     zerolog.Logger
}

// New constructs a running Agent Instance, wiring a fresh per-agent Bus,
// Engine, middleware/interceptor chains and permission checker — the
// Container is the only caller that should ever call this (spec.md §4.10).
func New(cfg Config) *Agent {
	b := bus.New(cfg.Log)
	a := &Agent{
		AgentID:     cfg.AgentID,
		Definition:  cfg.Definition,
		ContainerID: cfg.ContainerID,
		ImageID:     cfg.ImageID,
		CreatedAt:   cfg.CreatedAt,
		Bus:         b,
		Middleware:  middleware.New(cfg.Log),
		Interceptor: interceptor.New(cfg.Log),
		Permission:  permission.NewChecker(b),
		engine:      engine.New(cfg.AgentID),
		driver:      cfg.Driver,
		persist:     cfg.Persist,
		errMgr:      cfg.ErrMgr,
		log:         cfg.Log,
		lifecycle:   types.LifecycleRunning,
		state:       types.StateIdle,
		history:     append([]types.Message{}, cfg.History...),
		driverState: cloneState(cfg.DriverState),
	}
	return a
}

// Snapshot returns the persistable view of this Agent (spec.md §3).
func (a *Agent) Snapshot() types.Agent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return types.Agent{
		AgentID:     a.AgentID,
		ImageID:     a.ImageID,
		ContainerID: a.ContainerID,
		Lifecycle:   a.lifecycle,
		State:       a.state,
		CreatedAt:   a.CreatedAt,
	}
}

// State reports the agent's current conversation state.
func (a *Agent) State() types.AgentState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Receive drives one user turn through the pipeline (spec.md §4.9). It
// returns immediately after the Driver accepts the turn; stream output is
// delivered asynchronously over the Agent's Bus. A non-nil error here
// means the turn was rejected outright — agent-destroyed or agent-busy —
// never a mid-turn failure.
func (a *Agent) Receive(ctx context.Context, content types.UserMessage) error {
	a.mu.Lock()
	if a.lifecycle == types.LifecycleDestroyed {
		a.mu.Unlock()
		return agenterr.AgentDestroyed()
	}
	if a.state != types.StateIdle {
		a.mu.Unlock()
		return agenterr.AgentBusy()
	}
	a.mu.Unlock()

	msg := types.Message{
		ID:        types.NewID(types.PrefixMessage),
		Type:      types.MessageUser,
		Role:      "user",
		Timestamp: time.Now().UnixMilli(),
		User:      &content,
	}

	a.Middleware.Run(content, func(types.UserMessage) {
		a.startTurn(ctx, msg)
	})
	return nil
}

func (a *Agent) startTurn(parent context.Context, msg types.Message) {
	turnCtx, cancel := context.WithCancel(parent)
	a.mu.Lock()
	a.cancelTurn = cancel
	a.history = append(a.history, msg)
	history := append([]types.Message{}, a.history...)
	driverState := cloneState(a.driverState)
	a.mu.Unlock()

	for _, ev := range a.engine.ProcessUserMessage(msg) {
		a.dispatch(ev)
	}

	events, err := a.driver.Receive(turnCtx, history, msg, driverState)
	if err != nil {
		a.handleDriverError(err)
		return
	}

	go a.drain(events)
}

// drain reads every event the Driver yields for this turn, running each
// through the Engine, updating the state machine before interceptors, and
// dispatching the interceptor-transformed output onto the Bus (spec.md
// §4.9 step 4).
func (a *Agent) drain(events <-chan streamevent.Event) {
	for ev := range events {
		for _, out := range a.engine.Process(ev) {
			if se, ok := out.Data.(agentevent.StateEvent); ok {
				a.setState(se.TargetState)
			}
			a.dispatch(out)
		}

		if ev.Type == streamevent.MessageStop {
			if data, ok := ev.Data.(streamevent.MessageStopData); ok && data.StopReason == streamevent.StopError {
				a.handleDriverError(errors.New(data.Error))
			}
		}
		if ev.Type == streamevent.Interrupted {
			a.setState(types.StateIdle)
		}
	}

	a.mu.Lock()
	a.driverState = cloneState(a.driver.State())
	state := a.driverState
	a.mu.Unlock()
	if a.persist != nil {
		a.persist(state)
	}
}

func (a *Agent) handleDriverError(err error) {
	classified := agenterr.ClassifyDriverError(err)
	for _, ev := range a.engine.ProcessDriverError() {
		if se, ok := ev.Data.(agentevent.StateEvent); ok {
			a.setState(se.TargetState)
		}
		a.dispatch(ev)
	}
	a.dispatch(bus.Event{
		Type:      agentevent.ErrorEvent,
		UUID:      types.NewID(types.PrefixEvent),
		AgentID:   a.AgentID,
		Timestamp: time.Now().UnixMilli(),
		Data:      classified,
	})
	if a.errMgr != nil {
		a.errMgr.Observe(a.AgentID, classified)
	}
	if classified.Severity == agenterr.SeverityFatal {
		a.Destroy()
	}
}

// dispatch runs one Engine output through the interceptor chain and, if it
// was not short-circuited, emits it on the Bus (spec.md §4.8).
func (a *Agent) dispatch(ev bus.Event) {
	a.Interceptor.Run(ev, func(final bus.Event) {
		a.Bus.Emit(final)
	})
}

func (a *Agent) setState(target types.AgentState) {
	a.mu.Lock()
	a.state = target
	a.mu.Unlock()
}

// Interrupt cooperatively aborts the current turn (spec.md §4.9): return is
// immediate, the transition to idle is driven by the Driver's own
// interrupted stream event once it observes cancellation.
func (a *Agent) Interrupt() {
	a.mu.Lock()
	cancel := a.cancelTurn
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	a.driver.Interrupt()
}

// OnDestroy registers a handler notified when this Agent is destroyed.
func (a *Agent) OnDestroy(h DestroyHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroySubs = append(a.destroySubs, h)
}

// Destroy marks the agent destroyed, cancels any live turn, notifies
// destroy subscribers and tears down its Bus/Engine/chains (spec.md §4.9).
func (a *Agent) Destroy() {
	a.mu.Lock()
	if a.lifecycle == types.LifecycleDestroyed {
		a.mu.Unlock()
		return
	}
	a.lifecycle = types.LifecycleDestroyed
	subs := append([]DestroyHandler{}, a.destroySubs...)
	a.mu.Unlock()

	a.Interrupt()
	for _, h := range subs {
		h(a.AgentID)
	}
	a.engine.ClearState()
	a.Permission.ClearSession()
	a.Bus.Destroy()
}

func cloneState(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
