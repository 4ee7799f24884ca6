package homeroom

import (
	"context"

	"github.com/homeroomhq/homeroom/pkg/models"
)

func (dc *DataContext) Resources() []models.Resource {
	return dc.resources.List()
}

func (dc *DataContext) CurrentResource() *models.Resource {
	return dc.resources.Current()
}

func (dc *DataContext) LoadResources(ctx context.Context) {
	dc.resources.LoadAll(ctx)
}

func (dc *DataContext) GetResource(ctx context.Context, id models.ID) {
	dc.resources.Get(ctx, id)
}

func (dc *DataContext) CreateResource(ctx context.Context, data any) (*models.Resource, error) {
	return dc.resources.Create(ctx, data)
}

func (dc *DataContext) UpdateResource(ctx context.Context, id models.ID, data any) (*models.Resource, error) {
	return dc.resources.Update(ctx, id, data)
}

func (dc *DataContext) DeleteResource(ctx context.Context, id models.ID) error {
	return dc.resources.Delete(ctx, id)
}
