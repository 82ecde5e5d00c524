package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/agentrt"
	"github.com/agentx/agentx/internal/container"
	"github.com/agentx/agentx/internal/repository"
	"github.com/agentx/agentx/internal/sessionmgr"
	"github.com/agentx/agentx/pkg/types"
)

// Bridge is one Network Bridge connection: it owns a Channel, routes
// inbound frames (via a Receptor) to container/session operations, and
// attaches an Effector to every Agent it spawns or attaches to so that
// agent's output streams onto the Channel (spec.md §4.12).
type Bridge struct {
	channel   Channel
	repo      repository.Repository
	container *container.Container
	sessions  *sessionmgr.Manager
	log       zerolog.Logger

	receptor *Receptor

	mu        sync.Mutex
	effectors map[string]*Effector // agentID -> Effector
}

// New constructs a Bridge over an already-connected Channel.
func New(ch Channel, repo repository.Repository, c *container.Container, sessions *sessionmgr.Manager, log zerolog.Logger) *Bridge {
	b := &Bridge{
		channel:   ch,
		repo:      repo,
		container: c,
		sessions:  sessions,
		log:       log,
		effectors: make(map[string]*Effector),
	}
	b.receptor = NewReceptor(ch, b.handle, log)
	return b
}

// Serve runs the Receptor loop until the Channel closes. Call from its
// own goroutine per connection.
func (b *Bridge) Serve() {
	b.receptor.Run()
	b.mu.Lock()
	for _, e := range b.effectors {
		e.Detach()
	}
	b.effectors = make(map[string]*Effector)
	b.mu.Unlock()
}

func (b *Bridge) attachAgent(agent *agentrt.Agent) {
	b.mu.Lock()
	if _, ok := b.effectors[agent.AgentID]; ok {
		b.mu.Unlock()
		return
	}
	e := Attach(agent.Bus, b.channel, b.log)
	b.effectors[agent.AgentID] = e
	b.mu.Unlock()

	agent.OnDestroy(func(id string) {
		b.mu.Lock()
		if eff, ok := b.effectors[id]; ok {
			eff.Detach()
			delete(b.effectors, id)
		}
		b.mu.Unlock()
	})
}

// handle implements InboundHandler, dispatching each recognized inbound
// frame type of spec.md §6.2 to the corresponding container/session
// operation and building the matching *_response frame.
func (b *Bridge) handle(f Frame) (Frame, bool) {
	ctx := context.Background()
	data, _ := f.Data.(map[string]any)

	switch f.Type {
	case InAgentReceiveRequest:
		return b.handleAgentReceive(ctx, f, data), true
	case InUserMessageRequest:
		return b.handleUserMessage(ctx, f, data), true
	case InAgentInterruptRequest:
		return b.handleInterrupt(f), true
	case InImageListRequest:
		return b.handleImageList(ctx, f), true
	case InImageResumeRequest:
		return b.handleImageResume(ctx, f, data), true
	case InImageDeleteRequest:
		return b.handleImageDelete(ctx, f, data), true
	case InImageSnapshotRequest:
		return b.handleImageSnapshot(ctx, f, data), true
	case InAgentListRequest:
		return b.handleAgentList(f), true
	case InAgentDestroyRequest:
		return b.handleAgentDestroy(f), true
	default:
		return Frame{}, false
	}
}

func (b *Bridge) respond(f Frame, data any) Frame {
	return Frame{
		Type:      responseTypeOf(f.Type),
		UUID:      types.NewID(types.PrefixEvent),
		AgentID:   f.AgentID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
		RequestID: f.RequestID,
		Context:   f.Context,
	}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func (b *Bridge) handleAgentReceive(ctx context.Context, f Frame, data map[string]any) Frame {
	imageID := stringField(data, "imageId")
	if f.Context != nil && imageID == "" {
		imageID = f.Context.ImageID
	}
	image, err := b.repo.GetImage(ctx, imageID)
	if err != nil {
		return b.respond(f, map[string]any{"error": err.Error()})
	}

	agent, err := b.container.Run(ctx, image, container.RunOptions{})
	if err != nil {
		return b.respond(f, map[string]any{"error": err.Error()})
	}
	b.attachAgent(agent)

	content := extractUserContent(data)
	if err := agent.Receive(ctx, content); err != nil {
		return b.respond(f, map[string]any{"agentId": agent.AgentID, "error": err.Error()})
	}
	return b.respond(f, map[string]any{"agentId": agent.AgentID, "status": "processing"})
}

func (b *Bridge) handleUserMessage(ctx context.Context, f Frame, data map[string]any) Frame {
	agent, ok := b.container.Get(f.AgentID)
	if !ok {
		return b.respond(f, map[string]any{"error": "agent not found"})
	}
	content := extractUserContent(data)
	if err := agent.Receive(ctx, content); err != nil {
		return b.respond(f, map[string]any{"error": err.Error()})
	}
	return b.respond(f, map[string]any{"status": "processing"})
}

func extractUserContent(data map[string]any) types.UserMessage {
	if text, ok := data["content"].(string); ok {
		return types.UserMessage{Content: types.TextContent(text)}
	}
	if nested, ok := data["content"].(map[string]any); ok {
		if text, ok := nested["text"].(string); ok {
			return types.UserMessage{Content: types.TextContent(text)}
		}
	}
	return types.UserMessage{}
}

func (b *Bridge) handleInterrupt(f Frame) Frame {
	agent, ok := b.container.Get(f.AgentID)
	if !ok {
		return b.respond(f, map[string]any{"error": "agent not found"})
	}
	agent.Interrupt()
	return b.respond(f, map[string]any{"interrupted": true})
}

func (b *Bridge) handleImageList(ctx context.Context, f Frame) Frame {
	images, err := b.repo.ListImages(ctx)
	if err != nil {
		return b.respond(f, map[string]any{"error": err.Error()})
	}
	return b.respond(f, map[string]any{"images": images})
}

func (b *Bridge) handleImageResume(ctx context.Context, f Frame, data map[string]any) Frame {
	sessionID := stringField(data, "sessionId")
	agent, err := b.sessions.Resume(ctx, sessionID, stringField(data, "containerId"))
	if err != nil {
		return b.respond(f, map[string]any{"error": err.Error()})
	}
	b.attachAgent(agent)
	return b.respond(f, map[string]any{"agentId": agent.AgentID})
}

func (b *Bridge) handleImageDelete(ctx context.Context, f Frame, data map[string]any) Frame {
	imageID := stringField(data, "imageId")
	if err := b.repo.DeleteImage(ctx, imageID); err != nil {
		return b.respond(f, map[string]any{"error": err.Error()})
	}
	return b.respond(f, map[string]any{"deleted": true})
}

func (b *Bridge) handleImageSnapshot(ctx context.Context, f Frame, data map[string]any) Frame {
	imageID := stringField(data, "imageId")
	image, err := b.repo.GetImage(ctx, imageID)
	if err != nil {
		return b.respond(f, map[string]any{"error": err.Error()})
	}
	return b.respond(f, map[string]any{"image": image})
}

func (b *Bridge) handleAgentList(f Frame) Frame {
	agents := b.container.List()
	snapshots := make([]types.Agent, 0, len(agents))
	for _, a := range agents {
		snapshots = append(snapshots, a.Snapshot())
	}
	return b.respond(f, map[string]any{"agents": snapshots})
}

func (b *Bridge) handleAgentDestroy(f Frame) Frame {
	if err := b.container.Destroy(f.AgentID); err != nil {
		return b.respond(f, map[string]any{"error": err.Error()})
	}
	return b.respond(f, map[string]any{"destroyed": true})
}
