package server

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/homeroomhq/homeroom/internal/codec"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/live"
	"github.com/homeroomhq/homeroom/pkg/models"
)

// Fields the server owns. They are ignored in request bodies.
const (
	fieldID        = "id"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// collection serves the endpoints of one kind.
type collection struct {
	s    *Server
	kind models.Kind
}

func (c collection) list(w http.ResponseWriter, r *http.Request) {
	parent, ok := c.parent(w, r)
	if !ok {
		return
	}
	docs, err := c.s.store.List(r.Context(), c.kind, parent)
	if err != nil {
		c.s.fail(w, err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	c.s.respondJSON(w, http.StatusOK, docs)
}

func (c collection) get(w http.ResponseWriter, r *http.Request) {
	key, ok := c.key(w, r)
	if !ok {
		return
	}
	doc, err := c.s.store.Get(r.Context(), key)
	if err != nil {
		c.fail(w, key, err)
		return
	}
	c.s.respondJSON(w, http.StatusOK, doc)
}

func (c collection) create(w http.ResponseWriter, r *http.Request) {
	parent, ok := c.parent(w, r)
	if !ok {
		return
	}
	body, err := c.s.decodeBody(w, r)
	if err != nil {
		c.s.fail(w, err)
		return
	}

	key := store.Key{Kind: c.kind, Parent: parent, ID: c.s.newID()}
	now := c.s.timestamp()
	doc := c.stripManaged(body)
	doc[fieldID] = key.ID.String()
	doc[fieldCreatedAt] = now
	doc[fieldUpdatedAt] = now
	if c.kind.Nested() {
		doc[c.kind.ParentField()] = parent.String()
	}

	doc, err = c.s.check(r.Context(), c.kind, doc)
	if err != nil {
		c.s.fail(w, err)
		return
	}
	if err := c.s.store.Put(r.Context(), key, doc); err != nil {
		c.s.fail(w, err)
		return
	}
	c.s.publish(live.CreateAction, key, doc)
	c.s.respondJSON(w, http.StatusCreated, doc)
}

func (c collection) update(w http.ResponseWriter, r *http.Request) {
	key, ok := c.key(w, r)
	if !ok {
		return
	}
	existing, err := c.s.store.Get(r.Context(), key)
	if err != nil {
		c.fail(w, key, err)
		return
	}
	body, err := c.s.decodeBody(w, r)
	if err != nil {
		c.s.fail(w, err)
		return
	}

	doc := existing
	maps.Copy(doc, c.stripManaged(body))
	doc[fieldUpdatedAt] = c.s.timestamp()

	doc, err = c.s.check(r.Context(), c.kind, doc)
	if err != nil {
		c.s.fail(w, err)
		return
	}
	if err := c.s.store.Put(r.Context(), key, doc); err != nil {
		c.s.fail(w, err)
		return
	}
	c.s.publish(live.UpdateAction, key, doc)
	c.s.respondJSON(w, http.StatusOK, doc)
}

func (c collection) delete(w http.ResponseWriter, r *http.Request) {
	key, ok := c.key(w, r)
	if !ok {
		return
	}
	if err := c.s.store.Delete(r.Context(), key); err != nil {
		c.fail(w, key, err)
		return
	}
	c.s.publish(live.DeleteAction, key, nil)
	if err := c.s.deleteChildren(r.Context(), key); err != nil {
		c.s.fail(w, err)
		return
	}
	c.s.respondJSON(w, http.StatusNoContent, nil)
}

// parent resolves and checks the parent of a nested collection. It writes a
// 404 when the parent does not exist.
func (c collection) parent(w http.ResponseWriter, r *http.Request) (models.ID, bool) {
	if !c.kind.Nested() {
		return "", true
	}
	parent := models.ID(mux.Vars(r)["parent"])
	_, err := c.s.store.Get(r.Context(), store.Key{Kind: c.kind.Parent(), ID: parent})
	if errors.Is(err, store.ErrNotFound) {
		c.s.respondError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", c.kind.Parent().Singular(), parent))
		return "", false
	}
	if err != nil {
		c.s.fail(w, err)
		return "", false
	}
	return parent, true
}

func (c collection) key(w http.ResponseWriter, r *http.Request) (store.Key, bool) {
	parent, ok := c.parent(w, r)
	if !ok {
		return store.Key{}, false
	}
	return store.Key{Kind: c.kind, Parent: parent, ID: models.ID(mux.Vars(r)["id"])}, true
}

func (c collection) fail(w http.ResponseWriter, key store.Key, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.s.respondError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", c.kind.Singular(), key.ID))
		return
	}
	c.s.fail(w, err)
}

func (c collection) stripManaged(body store.Document) store.Document {
	doc := maps.Clone(body)
	delete(doc, fieldID)
	delete(doc, fieldCreatedAt)
	delete(doc, fieldUpdatedAt)
	if c.kind.Nested() {
		delete(doc, c.kind.ParentField())
	}
	return doc
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	var inv *invalidError
	switch {
	case errors.As(err, &inv):
		s.respondError(w, http.StatusBadRequest, inv.msg)
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (store.Document, error) {
	var body store.Document
	if err := codec.JSON.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&body); err != nil {
		return nil, invalid("invalid request body: %v", err)
	}
	if body == nil {
		return nil, invalid("request body must be a JSON object")
	}
	return body, nil
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// deleteChildren removes the records nested under a deleted parent.
func (s *Server) deleteChildren(ctx context.Context, parent store.Key) error {
	for _, kind := range models.Kinds() {
		if kind.Parent() != parent.Kind {
			continue
		}
		children, err := s.store.List(ctx, kind, parent.ID)
		if err != nil {
			return err
		}
		n, err := s.store.DeleteChildren(ctx, kind, parent.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			id, _ := child[fieldID].(string)
			s.publish(live.DeleteAction, store.Key{Kind: kind, Parent: parent.ID, ID: models.ID(id)}, nil)
		}
		if n > 0 {
			s.logger.Debug().Str("kind", kind.String()).Str("parent", parent.ID.String()).Int("count", n).Msg("cascaded delete")
		}
	}
	return nil
}

func (s *Server) publish(action live.Action, key store.Key, doc store.Document) {
	n := live.Notification{Action: action, Kind: key.Kind, ID: key.ID, ParentID: key.Parent}
	if doc != nil {
		record, err := codec.JSON.Marshal(doc)
		if err != nil {
			s.logger.Error().Err(err).Msg("encoding live notification")
			return
		}
		n.Record = record
	}
	if err := s.hub.Publish(n); err != nil {
		s.logger.Debug().Err(err).Str("kind", key.Kind.String()).Msg("live notification not published")
	}
}
