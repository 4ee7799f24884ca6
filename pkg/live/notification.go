// Package live carries change notifications from the homeroom server to
// connected clients over a websocket.
//
// The server side is a [Hub] mounted at /api/live. Every successful write
// through the API is published to it. Clients attach with [Subscribe] and
// read [Notification] values from the returned [Subscription].
package live

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/homeroomhq/homeroom/pkg/models"
)

type Action string

const (
	CreateAction Action = "CREATE"
	UpdateAction Action = "UPDATE"
	DeleteAction Action = "DELETE"
)

// Path is where the hub is mounted.
const Path = models.APIPrefix + "/live"

var ErrClosed = errors.New("live: closed")

// Notification describes one change. Record holds the entity after the
// change and is empty for deletions.
type Notification struct {
	Action   Action          `json:"action"`
	Kind     models.Kind     `json:"kind"`
	ID       models.ID       `json:"id"`
	ParentID models.ID       `json:"parentId,omitempty"`
	Record   json.RawMessage `json:"record,omitempty"`
}

// Decode unmarshals Record into dst.
func (n Notification) Decode(dst any) error {
	if len(n.Record) == 0 {
		return fmt.Errorf("%s %s %s: notification has no record", n.Action, n.Kind, n.ID)
	}
	return json.Unmarshal(n.Record, dst)
}

// URL derives the websocket endpoint from an API base URL such as
// "http://localhost:8080".
func URL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("live: unsupported scheme %q", u.Scheme)
	}
	u.Path += Path
	return u.String(), nil
}
