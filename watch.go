package homeroom

import (
	"context"
	"fmt"

	"github.com/homeroomhq/homeroom/pkg/live"
	"github.com/homeroomhq/homeroom/pkg/models"
)

// Watch applies changes made by other clients to local state until ctx is
// done or notifications is closed. Notifications for child kinds are only
// applied when they belong to the parent whose items are loaded.
//
// Watch is optional. Without it local state follows only this session's own
// acknowledged operations.
func (dc *DataContext) Watch(ctx context.Context, notifications <-chan live.Notification) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			if err := dc.Apply(n); err != nil {
				dc.logger.Warn().Err(err).Str("kind", n.Kind.String()).Str("id", n.ID.String()).Msg("ignoring live notification")
			}
		}
	}
}

// Apply applies one remote change.
func (dc *DataContext) Apply(n live.Notification) error {
	switch n.Kind {
	case models.KindBoard:
		if err := apply[models.Board](dc.boards, n); err != nil {
			return err
		}
		if n.Action == live.DeleteAction && dc.cascade {
			dc.boardItems.RemoveChildrenOf(n.ID)
		}
		return nil
	case models.KindBoardItem:
		if n.ParentID.IsZero() || n.ParentID != dc.boardItems.LoadedParent() {
			return nil
		}
		return apply[models.BoardItem](dc.boardItems, n)
	case models.KindResource:
		return apply[models.Resource](dc.resources, n)
	case models.KindLesson:
		return apply[models.Lesson](dc.lessons, n)
	case models.KindPlanner:
		if err := apply[models.Planner](dc.planners, n); err != nil {
			return err
		}
		if n.Action == live.DeleteAction && dc.cascade {
			dc.plannerItems.RemoveChildrenOf(n.ID)
		}
		return nil
	case models.KindPlannerItem:
		if n.ParentID.IsZero() || n.ParentID != dc.plannerItems.LoadedParent() {
			return nil
		}
		return apply[models.PlannerItem](dc.plannerItems, n)
	}
	return fmt.Errorf("%w: %q", models.ErrUnknownKind, n.Kind)
}

type remoteSink[T models.Entity] interface {
	Upsert(item T)
	Remove(id models.ID)
}

func apply[T models.Entity](sink remoteSink[T], n live.Notification) error {
	switch n.Action {
	case live.CreateAction, live.UpdateAction:
		var item T
		if err := n.Decode(&item); err != nil {
			return err
		}
		sink.Upsert(item)
	case live.DeleteAction:
		sink.Remove(n.ID)
	default:
		return fmt.Errorf("unknown live action %q", n.Action)
	}
	return nil
}
