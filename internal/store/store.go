// Package store persists the documents served by the reference homeroom
// server. Documents are JSON objects keyed by kind and id; child documents
// also carry their parent's id.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/homeroomhq/homeroom/pkg/models"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrUnknownDriver = errors.New("store: unknown driver")
)

// Document is one stored entity in its JSON object form.
type Document map[string]any

// Key addresses a document.
type Key struct {
	Kind   models.Kind
	Parent models.ID
	ID     models.ID
}

type Store interface {
	// List returns the documents of kind under parent in insertion order.
	List(ctx context.Context, kind models.Kind, parent models.ID) ([]Document, error)

	// Get returns ErrNotFound if there is no document for key or it belongs
	// to a different parent.
	Get(ctx context.Context, key Key) (Document, error)

	// Put inserts doc or replaces an existing document, keeping its position.
	Put(ctx context.Context, key Key, doc Document) error

	// Delete returns ErrNotFound if there is nothing to delete.
	Delete(ctx context.Context, key Key) error

	// DeleteChildren removes every document of kind under parent.
	DeleteChildren(ctx context.Context, kind models.Kind, parent models.ID) (int, error)

	Close() error
}

// Open returns the store for driver ("memory" or "sqlite"). path is only used
// by sqlite.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
