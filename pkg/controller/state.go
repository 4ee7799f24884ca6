package controller

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/rs/zerolog"
)

// Transport performs one JSON request against the API. *client.Client
// implements it.
type Transport interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// Clock hands out the sequence numbers that order recorded errors. Share one
// Clock between controllers whose errors are merged for display.
type Clock struct {
	n atomic.Uint64
}

func (c *Clock) Tick() uint64 {
	return c.n.Add(1)
}

// Status is a snapshot of one kind's request state.
type Status struct {
	Kind     models.Kind
	Loading  bool
	InFlight int
	Err      *OperationError
}

type Option func(*options)

type options struct {
	logger zerolog.Logger
	clock  *Clock
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithClock(clock *Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// state is the synchronised list, current pointer and request bookkeeping
// shared by Controller and Nested.
type state[T models.Entity] struct {
	kind      models.Kind
	transport Transport
	logger    zerolog.Logger
	clock     *Clock

	mu       sync.RWMutex
	items    []T
	current  *T
	parent   models.ID
	inflight int
	err      *OperationError

	// listGen is bumped for every list load; only the newest may replace
	// items.
	listGen uint64
	// tickets holds the newest mutation ticket issued per id.
	tickets    map[models.ID]uint64
	nextTicket uint64
	// epoch is bumped by Reset; responses issued before it are dropped.
	epoch uint64
}

func newState[T models.Entity](kind models.Kind, transport Transport, opts []Option) *state[T] {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = &Clock{}
	}
	return &state[T]{
		kind:      kind,
		transport: transport,
		logger:    o.logger.With().Str("kind", kind.String()).Logger(),
		clock:     o.clock,
		tickets:   make(map[models.ID]uint64),
	}
}

// LoadedParent is the parent id the list was last loaded for. It is empty
// for top-level kinds.
func (s *state[T]) LoadedParent() models.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parent
}

// Kind reports which entity kind this controller synchronises.
func (s *state[T]) Kind() models.Kind {
	return s.kind
}

// List returns a copy of the in-memory list.
func (s *state[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Current returns a copy of the current entity, or nil.
func (s *state[T]) Current() *T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cur := *s.current
	return &cur
}

// Find returns the listed entity with the given id.
func (s *state[T]) Find(id models.ID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

func (s *state[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Err returns the last recorded error, or nil once a later operation has
// started or the error was cleared.
func (s *state[T]) Err() *OperationError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *state[T]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{Kind: s.kind, Loading: s.inflight > 0, InFlight: s.inflight, Err: s.err}
}

func (s *state[T]) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// Reset drops all local state. Responses of requests still in flight are
// discarded when they arrive.
func (s *state[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.current = nil
	s.parent = ""
	s.err = nil
	s.listGen++
	s.epoch++
	clear(s.tickets)
}

// Upsert applies a change made elsewhere: the listed entity with the same id
// is replaced, or item is appended. The current entity follows.
func (s *state[T]) Upsert(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(item)
	s.replaceCurrent(item)
}

// Remove applies a deletion made elsewhere.
func (s *state[T]) Remove(id models.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
}

// RemoveWhere drops every listed entity matching fn and clears the current
// entity if it matches. It returns the number of listed entities removed.
func (s *state[T]) RemoveWhere(fn func(T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.items)
	s.items = slices.DeleteFunc(s.items, fn)
	if s.current != nil && fn(*s.current) {
		s.current = nil
	}
	return before - len(s.items)
}

// begin marks an operation in flight and clears the kind's error.
func (s *state[T]) begin() {
	s.inflight++
	s.err = nil
}

func (s *state[T]) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// fail records err. Callers hold mu.
func (s *state[T]) fail(verb Verb, collection bool, err error) *OperationError {
	oe := newOperationError(s.kind, verb, collection, err)
	oe.seq = s.clock.Tick()
	s.err = oe
	return oe
}

// ticket issues the next mutation ticket for id. Callers hold mu.
func (s *state[T]) ticket(id models.ID) uint64 {
	s.nextTicket++
	s.tickets[id] = s.nextTicket
	return s.nextTicket
}

// settle reports whether t is still the newest ticket for id and retires it
// if so. Callers hold mu.
func (s *state[T]) settle(id models.ID, t uint64) bool {
	if s.tickets[id] != t {
		return false
	}
	delete(s.tickets, id)
	return true
}

func (s *state[T]) index(id models.ID) int {
	return slices.IndexFunc(s.items, func(item T) bool { return item.EntityID() == id })
}

func (s *state[T]) upsert(item T) {
	if i := s.index(item.EntityID()); i >= 0 {
		s.items[i] = item
		return
	}
	s.items = append(s.items, item)
}

func (s *state[T]) replace(item T) {
	if i := s.index(item.EntityID()); i >= 0 {
		s.items[i] = item
	}
	s.replaceCurrent(item)
}

func (s *state[T]) replaceCurrent(item T) {
	if s.current != nil && (*s.current).EntityID() == item.EntityID() {
		s.current = &item
	}
}

func (s *state[T]) remove(id models.ID) {
	if i := s.index(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	if s.current != nil && (*s.current).EntityID() == id {
		s.current = nil
	}
}

func (s *state[T]) loadAll(ctx context.Context, parent models.ID) {
	log := s.logger.With().Str("verb", string(VerbLoad)).Str("parent", parent.String()).Logger()

	s.mu.Lock()
	s.begin()
	s.listGen++
	gen := s.listGen
	if s.kind.Nested() && parent.IsZero() {
		s.fail(VerbLoad, true, ErrMissingParent)
		s.mu.Unlock()
		s.end()
		return
	}
	s.mu.Unlock()
	defer s.end()

	var items []T
	err := s.transport.Do(ctx, http.MethodGet, s.kind.CollectionPath(parent), nil, &items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		oe := s.fail(VerbLoad, true, err)
		log.Warn().Err(err).Msg(oe.Message)
		return
	}
	if gen != s.listGen {
		log.Debug().Msg("discarding superseded list response")
		return
	}
	if items == nil {
		items = []T{}
	}
	s.items = items
	s.parent = parent
	log.Debug().Int("count", len(items)).Msg("list loaded")
}

func (s *state[T]) get(ctx context.Context, parent, id models.ID) {
	log := s.logger.With().Str("verb", string(VerbLoad)).Str("parent", parent.String()).Str("id", id.String()).Logger()

	s.mu.Lock()
	s.begin()
	if err := s.checkIDs(parent, id); err != nil {
		s.fail(VerbLoad, false, err)
		s.mu.Unlock()
		s.end()
		return
	}
	epoch := s.epoch
	s.mu.Unlock()
	defer s.end()

	var item T
	err := s.transport.Do(ctx, http.MethodGet, s.kind.ItemPath(parent, id), nil, &item)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		oe := s.fail(VerbLoad, false, err)
		log.Warn().Err(err).Msg(oe.Message)
		return
	}
	if epoch != s.epoch {
		return
	}
	s.current = &item
	log.Debug().Msg("entity loaded")
}

func (s *state[T]) create(ctx context.Context, parent models.ID, data any) (*T, error) {
	log := s.logger.With().Str("verb", string(VerbCreate)).Str("parent", parent.String()).Logger()

	s.mu.Lock()
	s.begin()
	if s.kind.Nested() && parent.IsZero() {
		oe := s.fail(VerbCreate, false, ErrMissingParent)
		s.mu.Unlock()
		s.end()
		return nil, oe
	}
	epoch := s.epoch
	s.mu.Unlock()
	defer s.end()

	var item T
	err := s.transport.Do(ctx, http.MethodPost, s.kind.CollectionPath(parent), data, &item)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		oe := s.fail(VerbCreate, false, err)
		log.Warn().Err(err).Msg(oe.Message)
		return nil, oe
	}
	if epoch != s.epoch {
		return &item, nil
	}
	// Upsert so a live notification that raced ahead of the response does
	// not leave a duplicate.
	s.upsert(item)
	log.Debug().Str("id", item.EntityID().String()).Msg("entity created")
	return &item, nil
}

func (s *state[T]) update(ctx context.Context, parent, id models.ID, data any) (*T, error) {
	log := s.logger.With().Str("verb", string(VerbUpdate)).Str("parent", parent.String()).Str("id", id.String()).Logger()

	s.mu.Lock()
	s.begin()
	if err := s.checkIDs(parent, id); err != nil {
		oe := s.fail(VerbUpdate, false, err)
		s.mu.Unlock()
		s.end()
		return nil, oe
	}
	t := s.ticket(id)
	s.mu.Unlock()
	defer s.end()

	var item T
	err := s.transport.Do(ctx, http.MethodPut, s.kind.ItemPath(parent, id), data, &item)

	s.mu.Lock()
	defer s.mu.Unlock()
	newest := s.settle(id, t)
	if err != nil {
		oe := s.fail(VerbUpdate, false, err)
		log.Warn().Err(err).Msg(oe.Message)
		return nil, oe
	}
	if !newest {
		log.Debug().Msg("discarding superseded update response")
		return &item, nil
	}
	s.replace(item)
	log.Debug().Msg("entity updated")
	return &item, nil
}

func (s *state[T]) delete(ctx context.Context, parent, id models.ID) error {
	log := s.logger.With().Str("verb", string(VerbDelete)).Str("parent", parent.String()).Str("id", id.String()).Logger()

	s.mu.Lock()
	s.begin()
	if err := s.checkIDs(parent, id); err != nil {
		oe := s.fail(VerbDelete, false, err)
		s.mu.Unlock()
		s.end()
		return oe
	}
	t := s.ticket(id)
	s.mu.Unlock()
	defer s.end()

	err := s.transport.Do(ctx, http.MethodDelete, s.kind.ItemPath(parent, id), nil, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	newest := s.settle(id, t)
	if err != nil {
		oe := s.fail(VerbDelete, false, err)
		log.Warn().Err(err).Msg(oe.Message)
		return oe
	}
	if !newest {
		log.Debug().Msg("discarding superseded delete response")
		return nil
	}
	s.remove(id)
	log.Debug().Msg("entity deleted")
	return nil
}

// checkIDs rejects requests that would address the wrong endpoint. Callers
// hold mu.
func (s *state[T]) checkIDs(parent, id models.ID) error {
	if s.kind.Nested() && parent.IsZero() {
		return ErrMissingParent
	}
	if id.IsZero() {
		return ErrMissingID
	}
	return nil
}
