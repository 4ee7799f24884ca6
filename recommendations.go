package homeroom

import (
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/homeroomhq/homeroom/pkg/recommend"
)

// RecommendResources ranks the loaded resources against p.
func (dc *DataContext) RecommendResources(p recommend.Preferences, limit int) []recommend.Scored[models.Resource] {
	return recommend.Resources(p, dc.Resources(), limit)
}

// RecommendLessons ranks the loaded lessons against p.
func (dc *DataContext) RecommendLessons(p recommend.Preferences, limit int) []recommend.Scored[models.Lesson] {
	return recommend.Lessons(p, dc.Lessons(), limit)
}
