package homeroom

import (
	"context"

	"github.com/homeroomhq/homeroom/pkg/controller"
	"golang.org/x/sync/errgroup"
)

// Refresh loads every top-level collection concurrently. Child collections
// need a parent and are left alone. The returned error is the first failure
// recorded; it is also visible through Error.
func (dc *DataContext) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { dc.boards.LoadAll(ctx); return asError(dc.boards.Err()) })
	g.Go(func() error { dc.resources.LoadAll(ctx); return asError(dc.resources.Err()) })
	g.Go(func() error { dc.lessons.LoadAll(ctx); return asError(dc.lessons.Err()) })
	g.Go(func() error { dc.planners.LoadAll(ctx); return asError(dc.planners.Err()) })
	return g.Wait()
}

// asError keeps a nil *OperationError from becoming a non-nil error.
func asError(err *controller.OperationError) error {
	if err == nil {
		return nil
	}
	return err
}
