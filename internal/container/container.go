// Package container implements the Container of spec.md §4.10: the
// runtime namespace that instantiates Agent Instances against Images,
// wires each one's Driver from the Definition it carries, and persists
// Driver-produced resume cursors back onto the owning Image.
package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/agentrt"
	"github.com/agentx/agentx/internal/driver/einodriver"
	"github.com/agentx/agentx/internal/errmgr"
	"github.com/agentx/agentx/internal/provider"
	"github.com/agentx/agentx/internal/repository"
	"github.com/agentx/agentx/internal/tool"
	"github.com/agentx/agentx/pkg/types"
)

// RunOptions configures one run/resume call.
type RunOptions struct {
	// ContainerID selects an existing container; empty allocates a new one.
	ContainerID string
}

// Container owns the live Agent Instances running against one namespace
// (spec.md §4.10). Agents are held only in memory; the backing Images and
// the Container record itself are durable via the Repository.
type Container struct {
	repo       repository.Repository
	providers  *provider.Registry
	toolReg    *tool.Registry
	errMgr     *errmgr.Manager
	log        zerolog.Logger
	workDir    string

	mu     sync.RWMutex
	record *types.Container
	agents map[string]*agentrt.Agent
}

// New constructs a Container with no persisted record loaded. Run/Resume
// load the record for a given ContainerID, or allocate a brand new one
// when the ContainerID is empty.
func New(repo repository.Repository, providers *provider.Registry, toolReg *tool.Registry, errMgr *errmgr.Manager, workDir string, log zerolog.Logger) *Container {
	return &Container{
		repo:      repo,
		providers: providers,
		toolReg:   toolReg,
		errMgr:    errMgr,
		workDir:   workDir,
		log:       log,
		agents:    make(map[string]*agentrt.Agent),
	}
}

// Run instantiates a fresh Agent Instance against an Image (spec.md §4.10:
// "run(image) → Agent"). If opts.ContainerID is empty, a new Container
// record is allocated and persisted; otherwise the existing record is
// loaded and this agent is added to its namespace.
func (c *Container) Run(ctx context.Context, image *types.Image, opts RunOptions) (*agentrt.Agent, error) {
	containerID, err := c.resolveContainer(ctx, opts.ContainerID)
	if err != nil {
		return nil, err
	}
	return c.spawn(ctx, image, containerID)
}

// Resume reconstructs an Agent Instance from a Session's Image, seeding
// the Driver with whatever resume cursor the Image carries (spec.md §4.10:
// "resume(session) → Agent").
func (c *Container) Resume(ctx context.Context, session *types.Session, opts RunOptions) (*agentrt.Agent, error) {
	image, err := c.repo.GetImage(ctx, session.ImageID)
	if err != nil {
		return nil, fmt.Errorf("container: resume: %w", err)
	}

	containerID := session.ContainerID
	if opts.ContainerID != "" {
		containerID = opts.ContainerID
	}
	resolved, err := c.resolveContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}
	return c.spawn(ctx, image, resolved)
}

func (c *Container) resolveContainer(ctx context.Context, containerID string) (string, error) {
	if containerID == "" {
		now := time.Now().UnixMilli()
		rec := types.NewContainer(nil, now)
		if err := c.repo.PutContainer(ctx, rec); err != nil {
			return "", fmt.Errorf("container: allocate: %w", err)
		}
		c.mu.Lock()
		c.record = rec
		c.mu.Unlock()
		return rec.ContainerID, nil
	}

	rec, err := c.repo.GetContainer(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("container: lookup %s: %w", containerID, err)
	}
	c.mu.Lock()
	c.record = rec
	c.mu.Unlock()
	return rec.ContainerID, nil
}

func (c *Container) spawn(ctx context.Context, image *types.Image, containerID string) (*agentrt.Agent, error) {
	providerID, modelID := provider.ParseModelString(image.Definition.Model)
	p, err := c.providers.Get(providerID)
	if err != nil {
		return nil, fmt.Errorf("container: resolve provider for definition %q: %w", image.Definition.Name, err)
	}
	_ = modelID // model selection happens inside CompletionRequest via the provider's default; kept for clarity of intent

	agentID := types.NewID(types.PrefixAgent)
	now := time.Now().UnixMilli()

	drv := einodriver.New(agentID, p, c.toolReg, c.log)

	agent := agentrt.New(agentrt.Config{
		AgentID:     agentID,
		Definition:  image.Definition,
		ContainerID: containerID,
		ImageID:     image.ImageID,
		History:     image.Messages,
		DriverState: image.DriverState,
		CreatedAt:   now,
		Driver:      drv,
		ErrMgr:      c.errMgr,
		Log:         c.log,
		Persist:     c.persistFunc(image.ImageID),
	})

	c.mu.Lock()
	c.agents[agentID] = agent
	c.mu.Unlock()

	agent.OnDestroy(func(id string) {
		c.mu.Lock()
		delete(c.agents, id)
		c.mu.Unlock()
	})

	return agent, nil
}

// persistFunc returns the callback an Agent Instance invokes with its
// Driver's latest resume cursor; it is written back onto the Image record
// (spec.md §4.10).
func (c *Container) persistFunc(imageID string) agentrt.PersistFunc {
	return func(driverState map[string]any) {
		ctx := context.Background()
		img, err := c.repo.GetImage(ctx, imageID)
		if err != nil {
			c.log.Warn().Err(err).Str("image_id", imageID).Msg("persist driver state: image not found")
			return
		}
		img.DriverState = driverState
		if err := c.repo.PutImage(ctx, img); err != nil {
			c.log.Warn().Err(err).Str("image_id", imageID).Msg("persist driver state: write failed")
		}
	}
}

// Get returns a running Agent by ID.
func (c *Container) Get(agentID string) (*agentrt.Agent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.agents[agentID]
	return a, ok
}

// List returns every currently running Agent in this Container.
func (c *Container) List() []*agentrt.Agent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*agentrt.Agent, 0, len(c.agents))
	for _, a := range c.agents {
		out = append(out, a)
	}
	return out
}

// Destroy tears down a single Agent (spec.md §4.10: "destroy(agentId)").
func (c *Container) Destroy(agentID string) error {
	c.mu.RLock()
	a, ok := c.agents[agentID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("container: agent %s not found", agentID)
	}
	a.Destroy()
	return nil
}

// DestroyAll tears down every Agent running in this Container, e.g. when
// the Container record itself is deleted.
func (c *Container) DestroyAll() {
	c.mu.RLock()
	agents := make([]*agentrt.Agent, 0, len(c.agents))
	for _, a := range c.agents {
		agents = append(agents, a)
	}
	c.mu.RUnlock()

	for _, a := range agents {
		a.Destroy()
	}
}

// Record returns the last Container record this instance resolved.
func (c *Container) Record() *types.Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record
}
