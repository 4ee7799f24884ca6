// Package controller keeps an in-memory copy of one REST collection in sync
// with the server.
//
// A controller holds the list of entities of one kind and at most one
// "current" entity. Local state changes only after the server acknowledged a
// request: create appends the response, update replaces the element with the
// same id by the response, delete removes it.
//
// LoadAll and Get never return an error. A failure is recorded and can be
// read back with Err. Create, Update and Delete record the failure and also
// return it as an [*OperationError].
//
// Every operation clears the kind's error when it starts. Loading reports
// whether any operation of the kind is in flight.
//
// Responses are sequenced per entity id: when two mutations of the same id
// overlap, only the response to the one issued last is applied. The earlier
// caller still receives its own result. Likewise only the newest list load
// replaces the list.
package controller

import (
	"context"

	"github.com/homeroomhq/homeroom/pkg/models"
)

// Controller synchronises a top-level collection such as /api/boards.
type Controller[T models.Entity] struct {
	*state[T]
}

// New creates a controller for a top-level kind.
func New[T models.Entity](kind models.Kind, transport Transport, opts ...Option) *Controller[T] {
	return &Controller[T]{state: newState[T](kind, transport, opts)}
}

// LoadAll replaces the list with the server's collection.
func (c *Controller[T]) LoadAll(ctx context.Context) {
	c.loadAll(ctx, "")
}

// Get fetches one entity into Current.
func (c *Controller[T]) Get(ctx context.Context, id models.ID) {
	c.get(ctx, "", id)
}

// Create posts data and appends the created entity.
func (c *Controller[T]) Create(ctx context.Context, data any) (*T, error) {
	return c.create(ctx, "", data)
}

// Update puts data and replaces the local copy with the server's answer.
func (c *Controller[T]) Update(ctx context.Context, id models.ID, data any) (*T, error) {
	return c.update(ctx, "", id, data)
}

func (c *Controller[T]) Delete(ctx context.Context, id models.ID) error {
	return c.delete(ctx, "", id)
}

// Nested synchronises a collection that lives under a parent, such as
// /api/boards/{boardId}/items. The list holds the children of the parent
// last loaded.
type Nested[T models.Child] struct {
	*state[T]
}

// NewNested creates a controller for a child kind.
func NewNested[T models.Child](kind models.Kind, transport Transport, opts ...Option) *Nested[T] {
	return &Nested[T]{state: newState[T](kind, transport, opts)}
}

func (c *Nested[T]) LoadAll(ctx context.Context, parent models.ID) {
	c.loadAll(ctx, parent)
}

func (c *Nested[T]) Get(ctx context.Context, parent, id models.ID) {
	c.get(ctx, parent, id)
}

func (c *Nested[T]) Create(ctx context.Context, parent models.ID, data any) (*T, error) {
	return c.create(ctx, parent, data)
}

func (c *Nested[T]) Update(ctx context.Context, parent, id models.ID, data any) (*T, error) {
	return c.update(ctx, parent, id, data)
}

func (c *Nested[T]) Delete(ctx context.Context, parent, id models.ID) error {
	return c.delete(ctx, parent, id)
}

// RemoveChildrenOf drops every listed child of parent and returns how many
// were removed.
func (c *Nested[T]) RemoveChildrenOf(parent models.ID) int {
	return c.RemoveWhere(func(item T) bool { return item.ParentID() == parent })
}
