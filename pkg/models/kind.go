package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// APIPrefix is the path every collection endpoint is mounted under.
const APIPrefix = "/api"

// RequestIDHeader carries the id correlating a client request with the
// server's log line for it.
const RequestIDHeader = "X-Request-Id"

// Kind identifies one of the six synchronised entity kinds.
type Kind string

const (
	KindBoard       Kind = "board"
	KindBoardItem   Kind = "board_item"
	KindResource    Kind = "resource"
	KindLesson      Kind = "lesson"
	KindPlanner     Kind = "planner"
	KindPlannerItem Kind = "planner_item"
)

var ErrUnknownKind = errors.New("unknown entity kind")

type kindInfo struct {
	singular    string
	plural      string
	segment     string
	parent      Kind
	parentField string
}

var kindTable = map[Kind]kindInfo{
	KindBoard:       {singular: "board", plural: "boards", segment: "boards"},
	KindBoardItem:   {singular: "board item", plural: "board items", segment: "items", parent: KindBoard, parentField: "boardId"},
	KindResource:    {singular: "resource", plural: "resources", segment: "resources"},
	KindLesson:      {singular: "lesson", plural: "lessons", segment: "lessons"},
	KindPlanner:     {singular: "planner", plural: "planners", segment: "planners"},
	KindPlannerItem: {singular: "planner item", plural: "planner items", segment: "items", parent: KindPlanner, parentField: "plannerId"},
}

// Kinds returns every kind, parents before their children.
func Kinds() []Kind {
	return []Kind{KindBoard, KindBoardItem, KindResource, KindLesson, KindPlanner, KindPlannerItem}
}

// ParseKind accepts the canonical name as well as the plural and dashed
// spellings used on the command line ("boards", "board-items").
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	norm = strings.ReplaceAll(norm, " ", "_")
	for k, info := range kindTable {
		if norm == string(k) || norm == strings.ReplaceAll(info.plural, " ", "_") {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) info() kindInfo {
	return kindTable[k]
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

func (k Kind) String() string { return string(k) }

// Singular is the human readable name, e.g. "board item".
func (k Kind) Singular() string { return k.info().singular }

// Plural is the human readable collection name, e.g. "board items".
func (k Kind) Plural() string { return k.info().plural }

// Command is the dashed plural used for CLI subcommands, e.g. "board-items".
func (k Kind) Command() string { return strings.ReplaceAll(k.info().plural, " ", "-") }

// Segment is the path segment of the collection below its parent (or below
// APIPrefix for top-level kinds).
func (k Kind) Segment() string { return k.info().segment }

// Parent returns the owning kind, or "" for top-level kinds.
func (k Kind) Parent() Kind { return k.info().parent }

// Nested reports whether the kind lives under a parent collection.
func (k Kind) Nested() bool { return k.info().parent != "" }

// ParentField is the JSON field of a child entity that holds its parent's id.
func (k Kind) ParentField() string { return k.info().parentField }

// CollectionPath builds the collection endpoint. parent is ignored for
// top-level kinds.
func (k Kind) CollectionPath(parent ID) string {
	info := k.info()
	if info.parent == "" {
		return APIPrefix + "/" + info.segment
	}
	return info.parent.ItemPath("", parent) + "/" + info.segment
}

// ItemPath builds the singleton endpoint for id.
func (k Kind) ItemPath(parent, id ID) string {
	return k.CollectionPath(parent) + "/" + url.PathEscape(string(id))
}
