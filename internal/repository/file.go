package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agentx/agentx/pkg/types"
)

// File is a disk-backed Repository, adapted from the source repository's
// internal/storage package: one JSON file per record, written via a
// temp-file-then-rename so a reader never observes a partial write, guarded
// by a per-path flock so concurrent writers to the same record serialize.
// It exists for anyone wiring real disk persistence; AgentX itself is built
// and tested against Memory.
type File struct {
	basePath string
	mu       sync.Mutex
	locks    map[string]*fileLock
}

// NewFile creates a File repository rooted at basePath.
func NewFile(basePath string) *File {
	return &File{basePath: basePath, locks: make(map[string]*fileLock)}
}

var _ Repository = (*File)(nil)

func (f *File) recordPath(kind, key string) string {
	return filepath.Join(f.basePath, kind, key+".json")
}

func (f *File) dirPath(kind string) string {
	return filepath.Join(f.basePath, kind)
}

func (f *File) getLock(path string) *fileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[path]
	if !ok {
		l = newFileLock(path)
		f.locks[path] = l
	}
	return l
}

func (f *File) write(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	lock := f.getLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (f *File) read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

func (f *File) remove(path string) error {
	lock := f.getLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (f *File) listKeys(kind string) ([]string, error) {
	entries, err := os.ReadDir(f.dirPath(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	return keys, nil
}

func (f *File) PutDefinition(_ context.Context, def types.Definition) error {
	return f.write(f.recordPath("definitions", def.Name), def)
}

func (f *File) GetDefinition(_ context.Context, name string) (types.Definition, error) {
	var def types.Definition
	err := f.read(f.recordPath("definitions", name), &def)
	return def, err
}

func (f *File) DeleteDefinition(_ context.Context, name string) error {
	return f.remove(f.recordPath("definitions", name))
}

func (f *File) ListDefinitions(ctx context.Context) ([]types.Definition, error) {
	keys, err := f.listKeys("definitions")
	if err != nil {
		return nil, err
	}
	out := make([]types.Definition, 0, len(keys))
	for _, k := range keys {
		def, err := f.GetDefinition(ctx, k)
		if err != nil {
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

func (f *File) PutImage(_ context.Context, img *types.Image) error {
	return f.write(f.recordPath("images", img.ImageID), img)
}

func (f *File) GetImage(_ context.Context, imageID string) (*types.Image, error) {
	var img types.Image
	if err := f.read(f.recordPath("images", imageID), &img); err != nil {
		return nil, err
	}
	return &img, nil
}

func (f *File) DeleteImage(ctx context.Context, imageID string) error {
	sessions, err := f.ListSessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if s.ImageID == imageID {
			return ErrConflict
		}
	}
	return f.remove(f.recordPath("images", imageID))
}

func (f *File) ListImages(ctx context.Context) ([]*types.Image, error) {
	keys, err := f.listKeys("images")
	if err != nil {
		return nil, err
	}
	out := make([]*types.Image, 0, len(keys))
	for _, k := range keys {
		img, err := f.GetImage(ctx, k)
		if err != nil {
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

func (f *File) PutSession(_ context.Context, sess *types.Session) error {
	return f.write(f.recordPath("sessions", sess.SessionID), sess)
}

func (f *File) GetSession(_ context.Context, sessionID string) (*types.Session, error) {
	var s types.Session
	if err := f.read(f.recordPath("sessions", sessionID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *File) DeleteSession(ctx context.Context, sessionID string) error {
	if err := f.DeleteMessages(ctx, sessionID); err != nil {
		return err
	}
	return f.remove(f.recordPath("sessions", sessionID))
}

func (f *File) ListSessions(ctx context.Context) ([]*types.Session, error) {
	keys, err := f.listKeys("sessions")
	if err != nil {
		return nil, err
	}
	out := make([]*types.Session, 0, len(keys))
	for _, k := range keys {
		s, err := f.GetSession(ctx, k)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *File) ListSessionsByImage(ctx context.Context, imageID string) ([]*types.Session, error) {
	all, err := f.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	var out []*types.Session
	for _, s := range all {
		if s.ImageID == imageID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *File) ListChildSessions(ctx context.Context, parentSessionID string) ([]*types.Session, error) {
	all, err := f.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	var out []*types.Session
	for _, s := range all {
		if s.ParentID != nil && *s.ParentID == parentSessionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *File) PutContainer(_ context.Context, c *types.Container) error {
	return f.write(f.recordPath("containers", c.ContainerID), c)
}

func (f *File) GetContainer(_ context.Context, containerID string) (*types.Container, error) {
	var c types.Container
	if err := f.read(f.recordPath("containers", containerID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (f *File) DeleteContainer(ctx context.Context, containerID string) error {
	sessions, err := f.ListSessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if s.ContainerID == containerID {
			if err := f.DeleteSession(ctx, s.SessionID); err != nil {
				return err
			}
		}
	}
	return f.remove(f.recordPath("containers", containerID))
}

func (f *File) ListContainers(ctx context.Context) ([]*types.Container, error) {
	keys, err := f.listKeys("containers")
	if err != nil {
		return nil, err
	}
	out := make([]*types.Container, 0, len(keys))
	for _, k := range keys {
		c, err := f.GetContainer(ctx, k)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *File) AppendMessage(ctx context.Context, sessionID string, msg types.Message) error {
	existing, err := f.ListMessages(ctx, sessionID)
	if err != nil {
		return err
	}
	existing = append(existing, msg)
	return f.write(f.recordPath("messages", sessionID), existing)
}

func (f *File) ListMessages(_ context.Context, sessionID string) ([]types.Message, error) {
	var msgs []types.Message
	err := f.read(f.recordPath("messages", sessionID), &msgs)
	if err == ErrNotFound {
		return nil, nil
	}
	return msgs, err
}

func (f *File) DeleteMessages(_ context.Context, sessionID string) error {
	return f.remove(f.recordPath("messages", sessionID))
}
