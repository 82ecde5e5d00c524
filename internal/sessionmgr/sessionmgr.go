// Package sessionmgr implements the Session Manager of spec.md §4.11: the
// user-facing handle layer over Images, responsible for creating, forking
// and resuming Sessions and for durably recording every message an Agent
// Instance produces while a Session is live.
package sessionmgr

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/agentevent"
	"github.com/agentx/agentx/internal/agentrt"
	"github.com/agentx/agentx/internal/bus"
	"github.com/agentx/agentx/internal/container"
	"github.com/agentx/agentx/internal/repository"
	"github.com/agentx/agentx/pkg/types"
)

// Manager implements spec.md §4.11 over one Repository and Container.
type Manager struct {
	repo      repository.Repository
	container *container.Container
	log       zerolog.Logger
}

// New constructs a Session Manager.
func New(repo repository.Repository, c *container.Container, log zerolog.Logger) *Manager {
	return &Manager{repo: repo, container: c, log: log}
}

// Create allocates a new Session bound to an existing Image and Container
// (spec.md §4.11: "create(imageId, containerId) → Session").
func (m *Manager) Create(ctx context.Context, imageID, containerID string) (*types.Session, error) {
	if _, err := m.repo.GetImage(ctx, imageID); err != nil {
		return nil, fmt.Errorf("sessionmgr: create: %w", err)
	}
	sess := types.NewSession(containerID, imageID, time.Now().UnixMilli())
	if err := m.repo.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("sessionmgr: create: persist: %w", err)
	}
	return sess, nil
}

// Resume instantiates a live Agent Instance bound to a Session's Image and
// wires a message collector so every message the agent produces is
// appended to durable storage (spec.md §4.11: "resume({containerId?}) →
// Agent").
func (m *Manager) Resume(ctx context.Context, sessionID string, containerID string) (*agentrt.Agent, error) {
	sess, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sessionmgr: resume: %w", err)
	}

	agent, err := m.container.Resume(ctx, sess, container.RunOptions{ContainerID: containerID})
	if err != nil {
		return nil, fmt.Errorf("sessionmgr: resume: %w", err)
	}

	m.attachCollector(agent, sess.SessionID)
	return agent, nil
}

// attachCollector subscribes to the four message event types (spec.md
// §4.2) and appends each assembled Message to the Session's durable
// history as it is produced.
func (m *Manager) attachCollector(agent *agentrt.Agent, sessionID string) {
	handler := func(ev bus.Event) {
		me, ok := ev.Data.(agentevent.MessageEvent)
		if !ok {
			return
		}
		ctx := context.Background()
		if err := m.repo.AppendMessage(ctx, sessionID, me.Message); err != nil {
			m.log.Warn().Err(err).Str("session_id", sessionID).Msg("append message failed")
		}
		m.touch(ctx, sessionID)
	}
	agent.Bus.On([]string{
		agentevent.UserMessageEvent,
		agentevent.AssistantMessageEvent,
		agentevent.ToolCallMessageEvent,
		agentevent.ToolResultMessageEvent,
	}, handler, bus.Options{})
}

func (m *Manager) touch(ctx context.Context, sessionID string) {
	sess, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return
	}
	sess.UpdatedAt = time.Now().UnixMilli()
	_ = m.repo.PutSession(ctx, sess)
}

// Fork atomically deep-copies the Session's underlying Image and creates a
// new Session pointing at the copy, titled "Fork of <title>" (spec.md
// §4.11).
func (m *Manager) Fork(ctx context.Context, sessionID string) (*types.Session, error) {
	sess, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sessionmgr: fork: %w", err)
	}
	image, err := m.repo.GetImage(ctx, sess.ImageID)
	if err != nil {
		return nil, fmt.Errorf("sessionmgr: fork: %w", err)
	}

	now := time.Now().UnixMilli()
	forked := image.Fork(now)
	if err := m.repo.PutImage(ctx, forked); err != nil {
		return nil, fmt.Errorf("sessionmgr: fork: persist image: %w", err)
	}

	newSess := types.NewSession(sess.ContainerID, forked.ImageID, now)
	newSess.ParentID = &sess.SessionID
	title := sess.Title
	if title == "" {
		title = "Untitled"
	}
	newSess.Title = "Fork of " + title

	if err := m.repo.PutSession(ctx, newSess); err != nil {
		_ = m.repo.DeleteImage(ctx, forked.ImageID)
		return nil, fmt.Errorf("sessionmgr: fork: persist session: %w", err)
	}
	return newSess, nil
}

// GetMessages returns the Session's durable message history in append
// order (spec.md §4.11: "getMessages() → ordered[Message]").
func (m *Manager) GetMessages(ctx context.Context, sessionID string) ([]types.Message, error) {
	return m.repo.ListMessages(ctx, sessionID)
}

// SetTitle renames a Session (spec.md §4.11: "setTitle(title)").
func (m *Manager) SetTitle(ctx context.Context, sessionID, title string) error {
	sess, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("sessionmgr: setTitle: %w", err)
	}
	sess.Title = title
	sess.UpdatedAt = time.Now().UnixMilli()
	return m.repo.PutSession(ctx, sess)
}

// Get returns a Session record by ID.
func (m *Manager) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	return m.repo.GetSession(ctx, sessionID)
}

// Delete removes a Session record. Per spec.md §6.5, deleting a Session
// cascades to its Messages; it does not touch the underlying Image, which
// may still be referenced by sibling Sessions.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.repo.DeleteSession(ctx, sessionID)
}

// List returns every Session in the repository.
func (m *Manager) List(ctx context.Context) ([]*types.Session, error) {
	return m.repo.ListSessions(ctx)
}
