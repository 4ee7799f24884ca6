package models

// Lesson is a unit of teaching with the resources it uses embedded.
type Lesson struct {
	ID              ID         `json:"id"`
	Title           string     `json:"title" validate:"required,max=200"`
	Description     string     `json:"description,omitempty" validate:"max=2000"`
	Subject         string     `json:"subject,omitempty" validate:"max=100"`
	GradeLevel      string     `json:"gradeLevel,omitempty" validate:"max=50"`
	DurationMinutes int        `json:"durationMinutes,omitempty" validate:"min=0,max=1440"`
	Content         string     `json:"content,omitempty"`
	Resources       []Resource `json:"resources,omitempty" validate:"dive"`
	Timestamps
}

func (l Lesson) EntityID() ID { return l.ID }

// Tags collects the tags of every embedded resource, deduplicated and in
// first-seen order.
func (l Lesson) Tags() []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, r := range l.Resources {
		for _, t := range r.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}
