package homeroom

import (
	"context"

	"github.com/homeroomhq/homeroom/pkg/models"
)

func (dc *DataContext) Planners() []models.Planner {
	return dc.planners.List()
}

func (dc *DataContext) CurrentPlanner() *models.Planner {
	return dc.planners.Current()
}

func (dc *DataContext) LoadPlanners(ctx context.Context) {
	dc.planners.LoadAll(ctx)
}

func (dc *DataContext) GetPlanner(ctx context.Context, id models.ID) {
	dc.planners.Get(ctx, id)
}

func (dc *DataContext) CreatePlanner(ctx context.Context, data any) (*models.Planner, error) {
	return dc.planners.Create(ctx, data)
}

func (dc *DataContext) UpdatePlanner(ctx context.Context, id models.ID, data any) (*models.Planner, error) {
	return dc.planners.Update(ctx, id, data)
}

// DeletePlanner deletes a planner. Its items are only dropped locally with
// WithCascadeDelete.
func (dc *DataContext) DeletePlanner(ctx context.Context, id models.ID) error {
	if err := dc.planners.Delete(ctx, id); err != nil {
		return err
	}
	if dc.cascade {
		n := dc.plannerItems.RemoveChildrenOf(id)
		dc.logger.Debug().Str("planner", id.String()).Int("items", n).Msg("cascaded planner delete")
	}
	return nil
}

func (dc *DataContext) PlannerItems() []models.PlannerItem {
	return dc.plannerItems.List()
}

func (dc *DataContext) CurrentPlannerItem() *models.PlannerItem {
	return dc.plannerItems.Current()
}

func (dc *DataContext) LoadPlannerItems(ctx context.Context, plannerID models.ID) {
	dc.plannerItems.LoadAll(ctx, plannerID)
}

func (dc *DataContext) GetPlannerItem(ctx context.Context, plannerID, id models.ID) {
	dc.plannerItems.Get(ctx, plannerID, id)
}

func (dc *DataContext) CreatePlannerItem(ctx context.Context, plannerID models.ID, data any) (*models.PlannerItem, error) {
	return dc.plannerItems.Create(ctx, plannerID, data)
}

func (dc *DataContext) UpdatePlannerItem(ctx context.Context, plannerID, id models.ID, data any) (*models.PlannerItem, error) {
	return dc.plannerItems.Update(ctx, plannerID, id, data)
}

func (dc *DataContext) DeletePlannerItem(ctx context.Context, plannerID, id models.ID) error {
	return dc.plannerItems.Delete(ctx, plannerID, id)
}
