package homeroom

import (
	"github.com/homeroomhq/homeroom/pkg/controller"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/rs/zerolog"
)

// DataContext owns the synchronised state of all six entity kinds for one
// session. Create one with New and share it by reference.
type DataContext struct {
	boards       *controller.Controller[models.Board]
	boardItems   *controller.Nested[models.BoardItem]
	resources    *controller.Controller[models.Resource]
	lessons      *controller.Controller[models.Lesson]
	planners     *controller.Controller[models.Planner]
	plannerItems *controller.Nested[models.PlannerItem]

	logger  zerolog.Logger
	cascade bool
}

type Option func(*DataContext)

func WithLogger(logger zerolog.Logger) Option {
	return func(dc *DataContext) {
		dc.logger = logger
	}
}

// WithCascadeDelete makes a successful board or planner deletion also drop
// the deleted parent's items from local state. Without it, children stay
// until they are loaded again.
func WithCascadeDelete() Option {
	return func(dc *DataContext) {
		dc.cascade = true
	}
}

// New creates a DataContext whose controllers talk to the API through
// transport, usually a *client.Client.
func New(transport controller.Transport, opts ...Option) *DataContext {
	dc := &DataContext{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(dc)
	}

	clock := &controller.Clock{}
	copts := []controller.Option{controller.WithClock(clock), controller.WithLogger(dc.logger)}

	dc.boards = controller.New[models.Board](models.KindBoard, transport, copts...)
	dc.boardItems = controller.NewNested[models.BoardItem](models.KindBoardItem, transport, copts...)
	dc.resources = controller.New[models.Resource](models.KindResource, transport, copts...)
	dc.lessons = controller.New[models.Lesson](models.KindLesson, transport, copts...)
	dc.planners = controller.New[models.Planner](models.KindPlanner, transport, copts...)
	dc.plannerItems = controller.NewNested[models.PlannerItem](models.KindPlannerItem, transport, copts...)
	return dc
}

// status is the view of a controller the aggregator merges.
type status interface {
	Status() controller.Status
	ClearError()
	Reset()
}

func (dc *DataContext) controllers() []status {
	return []status{dc.boards, dc.boardItems, dc.resources, dc.lessons, dc.planners, dc.plannerItems}
}

// Loading reports whether an operation of any kind is in flight.
func (dc *DataContext) Loading() bool {
	for _, c := range dc.controllers() {
		if c.Status().Loading {
			return true
		}
	}
	return false
}

// Error returns the message of the most recently recorded error that is
// still set on its kind, or "" if there is none.
func (dc *DataContext) Error() string {
	if err := dc.LastError(); err != nil {
		return err.Message
	}
	return ""
}

// LastError is Error with the kind and cause attached.
func (dc *DataContext) LastError() *controller.OperationError {
	var last *controller.OperationError
	for _, c := range dc.controllers() {
		if err := c.Status().Err; err != nil && (last == nil || err.Seq() > last.Seq()) {
			last = err
		}
	}
	return last
}

// Status returns the per-kind request state in models.Kinds order.
func (dc *DataContext) Status() []controller.Status {
	ctrls := dc.controllers()
	out := make([]controller.Status, 0, len(ctrls))
	for _, c := range ctrls {
		out = append(out, c.Status())
	}
	return out
}

// ClearError dismisses the errors of every kind.
func (dc *DataContext) ClearError() {
	for _, c := range dc.controllers() {
		c.ClearError()
	}
}

// Reset ends the session: all lists, current entities and errors are
// dropped, and responses still in flight are ignored.
func (dc *DataContext) Reset() {
	for _, c := range dc.controllers() {
		c.Reset()
	}
	dc.logger.Debug().Msg("data context reset")
}
