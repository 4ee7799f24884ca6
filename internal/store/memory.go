package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/homeroomhq/homeroom/pkg/models"
)

type memEntry struct {
	parent models.ID
	doc    Document
}

type memCollection struct {
	order []models.ID
	docs  map[models.ID]memEntry
}

// Memory keeps documents in process memory.
type Memory struct {
	mu          sync.RWMutex
	collections map[models.Kind]*memCollection
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[models.Kind]*memCollection)}
}

func (m *Memory) collection(kind models.Kind) *memCollection {
	c, ok := m.collections[kind]
	if !ok {
		c = &memCollection{docs: make(map[models.ID]memEntry)}
		m.collections[kind] = c
	}
	return c
}

func (m *Memory) List(_ context.Context, kind models.Kind, parent models.ID) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[kind]
	if !ok {
		return []Document{}, nil
	}
	out := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		if e := c.docs[id]; e.parent == parent {
			out = append(out, maps.Clone(e.doc))
		}
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, key Key) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[key.Kind]
	if !ok {
		return nil, ErrNotFound
	}
	e, ok := c.docs[key.ID]
	if !ok || e.parent != key.Parent {
		return nil, ErrNotFound
	}
	return maps.Clone(e.doc), nil
}

func (m *Memory) Put(_ context.Context, key Key, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(key.Kind)
	if _, ok := c.docs[key.ID]; !ok {
		c.order = append(c.order, key.ID)
	}
	c.docs[key.ID] = memEntry{parent: key.Parent, doc: maps.Clone(doc)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[key.Kind]
	if !ok {
		return ErrNotFound
	}
	if e, ok := c.docs[key.ID]; !ok || e.parent != key.Parent {
		return ErrNotFound
	}
	delete(c.docs, key.ID)
	c.order = slices.DeleteFunc(c.order, func(id models.ID) bool { return id == key.ID })
	return nil
}

func (m *Memory) DeleteChildren(_ context.Context, kind models.Kind, parent models.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[kind]
	if !ok {
		return 0, nil
	}
	var n int
	c.order = slices.DeleteFunc(c.order, func(id models.ID) bool {
		if c.docs[id].parent != parent {
			return false
		}
		delete(c.docs, id)
		n++
		return true
	})
	return n, nil
}

func (m *Memory) Close() error {
	return nil
}
