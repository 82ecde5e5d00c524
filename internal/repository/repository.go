// Package repository implements the Repository contract of spec.md §6.5
// (C1): key-addressed persistence of Definitions, Images, Sessions,
// Messages and Containers. Per spec.md §1, relational persistence on disk
// is an out-of-scope external-collaborator concern — this package defines
// the contract as a Go interface and ships two adapters: an in-memory one
// (the primary adapter for tests and for embedding in a single-process
// deployment) and a thin file-backed one adapted from the source
// repository's internal/storage package for anyone wiring in real disk
// persistence.
package repository

import (
	"context"
	"errors"

	"github.com/agentx/agentx/pkg/types"
)

// ErrNotFound is returned when a Get by key has no matching record.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict is returned by a delete that would violate referential
// integrity (spec.md §6.5): deleting an Image with live Sessions, for
// instance.
var ErrConflict = errors.New("repository: referential integrity conflict")

// Repository is the full persistence contract. All methods are safe for
// concurrent use; per spec.md §5, last-writer-wins on whole records is
// acceptable, and Message inserts are append-only so conflicts there are
// impossible by construction.
type Repository interface {
	PutDefinition(ctx context.Context, def types.Definition) error
	GetDefinition(ctx context.Context, name string) (types.Definition, error)
	DeleteDefinition(ctx context.Context, name string) error
	ListDefinitions(ctx context.Context) ([]types.Definition, error)

	PutImage(ctx context.Context, img *types.Image) error
	GetImage(ctx context.Context, imageID string) (*types.Image, error)
	// DeleteImage fails with ErrConflict if any Session still references
	// imageID (spec.md §6.5: "deleting an Image whose Sessions exist is
	// forbidden").
	DeleteImage(ctx context.Context, imageID string) error
	ListImages(ctx context.Context) ([]*types.Image, error)

	PutSession(ctx context.Context, sess *types.Session) error
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)
	// DeleteSession cascades to that session's Messages.
	DeleteSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]*types.Session, error)
	ListSessionsByImage(ctx context.Context, imageID string) ([]*types.Session, error)
	ListChildSessions(ctx context.Context, parentSessionID string) ([]*types.Session, error)

	PutContainer(ctx context.Context, c *types.Container) error
	GetContainer(ctx context.Context, containerID string) (*types.Container, error)
	// DeleteContainer cascades to every Session bound to it.
	DeleteContainer(ctx context.Context, containerID string) error
	ListContainers(ctx context.Context) ([]*types.Container, error)

	AppendMessage(ctx context.Context, sessionID string, msg types.Message) error
	ListMessages(ctx context.Context, sessionID string) ([]types.Message, error)
	DeleteMessages(ctx context.Context, sessionID string) error
}
