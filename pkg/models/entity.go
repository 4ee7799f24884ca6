package models

import "time"

// ID is a server-assigned identifier. The client treats it as opaque.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// Entity is implemented by every synchronised record.
type Entity interface {
	EntityID() ID
}

// Child is implemented by records that live under a parent collection.
type Child interface {
	Entity
	ParentID() ID
}

// Patch is a partial entity sent as the body of create and update calls.
// Only the keys present are sent; the server response is authoritative.
type Patch map[string]any

// Timestamps are maintained by the server.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Visibility controls who can see a board or resource.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)
