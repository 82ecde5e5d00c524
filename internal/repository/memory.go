package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/agentx/agentx/pkg/types"
)

// Memory is an in-memory Repository. It is the adapter the rest of
// AgentX is built and tested against; a real deployment swaps in a disk-
// or database-backed adapter behind the same interface without any
// caller change.
type Memory struct {
	mu          sync.RWMutex
	definitions map[string]types.Definition
	images      map[string]*types.Image
	sessions    map[string]*types.Session
	containers  map[string]*types.Container
	messages    map[string][]types.Message // sessionID -> ordered messages
}

// NewMemory creates an empty in-memory Repository.
func NewMemory() *Memory {
	return &Memory{
		definitions: make(map[string]types.Definition),
		images:      make(map[string]*types.Image),
		sessions:    make(map[string]*types.Session),
		containers:  make(map[string]*types.Container),
		messages:    make(map[string][]types.Message),
	}
}

var _ Repository = (*Memory)(nil)

func (m *Memory) PutDefinition(_ context.Context, def types.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.definitions[def.Name] = def.Clone()
	return nil
}

func (m *Memory) GetDefinition(_ context.Context, name string) (types.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.definitions[name]
	if !ok {
		return types.Definition{}, ErrNotFound
	}
	return def.Clone(), nil
}

func (m *Memory) DeleteDefinition(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.definitions, name)
	return nil
}

func (m *Memory) ListDefinitions(_ context.Context) ([]types.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Definition, 0, len(m.definitions))
	for _, d := range m.definitions {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) PutImage(_ context.Context, img *types.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *img
	cp.Messages = append([]types.Message(nil), img.Messages...)
	m.images[img.ImageID] = &cp
	return nil
}

func (m *Memory) GetImage(_ context.Context, imageID string) (*types.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[imageID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *img
	cp.Messages = append([]types.Message(nil), img.Messages...)
	return &cp, nil
}

func (m *Memory) DeleteImage(_ context.Context, imageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ImageID == imageID {
			return ErrConflict
		}
	}
	delete(m.images, imageID)
	return nil
}

func (m *Memory) ListImages(_ context.Context) ([]*types.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Image, 0, len(m.images))
	for _, img := range m.images {
		cp := *img
		cp.Messages = append([]types.Message(nil), img.Messages...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *Memory) PutSession(_ context.Context, sess *types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sess
	m.sessions[sess.SessionID] = &cp
	return nil
}

func (m *Memory) GetSession(_ context.Context, sessionID string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	delete(m.messages, sessionID)
	return nil
}

func (m *Memory) ListSessions(_ context.Context) ([]*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *Memory) ListSessionsByImage(_ context.Context, imageID string) ([]*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Session
	for _, s := range m.sessions {
		if s.ImageID == imageID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) ListChildSessions(_ context.Context, parentSessionID string) ([]*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Session
	for _, s := range m.sessions {
		if s.ParentID != nil && *s.ParentID == parentSessionID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) PutContainer(_ context.Context, c *types.Container) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.containers[c.ContainerID] = &cp
	return nil
}

func (m *Memory) GetContainer(_ context.Context, containerID string) (*types.Container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.containers[containerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) DeleteContainer(_ context.Context, containerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.containers, containerID)
	for id, s := range m.sessions {
		if s.ContainerID == containerID {
			delete(m.sessions, id)
			delete(m.messages, id)
		}
	}
	return nil
}

func (m *Memory) ListContainers(_ context.Context) ([]*types.Container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Container, 0, len(m.containers))
	for _, c := range m.containers {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *Memory) AppendMessage(_ context.Context, sessionID string, msg types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	return nil
}

func (m *Memory) ListMessages(_ context.Context, sessionID string) ([]types.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]types.Message(nil), m.messages[sessionID]...)
	return out, nil
}

func (m *Memory) DeleteMessages(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, sessionID)
	return nil
}
