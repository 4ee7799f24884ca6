package homeroom

import (
	"context"

	"github.com/homeroomhq/homeroom/pkg/models"
)

func (dc *DataContext) Lessons() []models.Lesson {
	return dc.lessons.List()
}

func (dc *DataContext) CurrentLesson() *models.Lesson {
	return dc.lessons.Current()
}

func (dc *DataContext) LoadLessons(ctx context.Context) {
	dc.lessons.LoadAll(ctx)
}

func (dc *DataContext) GetLesson(ctx context.Context, id models.ID) {
	dc.lessons.Get(ctx, id)
}

func (dc *DataContext) CreateLesson(ctx context.Context, data any) (*models.Lesson, error) {
	return dc.lessons.Create(ctx, data)
}

func (dc *DataContext) UpdateLesson(ctx context.Context, id models.ID, data any) (*models.Lesson, error) {
	return dc.lessons.Update(ctx, id, data)
}

func (dc *DataContext) DeleteLesson(ctx context.Context, id models.ID) error {
	return dc.lessons.Delete(ctx, id)
}
