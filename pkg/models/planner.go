package models

// Planner is a schedule covering a date range, e.g. a school term.
type Planner struct {
	ID          ID     `json:"id"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	StartDate   Date   `json:"startDate"`
	EndDate     Date   `json:"endDate"`
	Timestamps
}

func (p Planner) EntityID() ID { return p.ID }

// Covers reports whether d falls inside the planner's range, inclusive.
func (p Planner) Covers(d Date) bool {
	return !d.Before(p.StartDate) && !p.EndDate.Before(d)
}

// PlannerItemStatus tracks a scheduled activity.
type PlannerItemStatus string

const (
	PlannerItemPlanned    PlannerItemStatus = "planned"
	PlannerItemInProgress PlannerItemStatus = "in_progress"
	PlannerItemCompleted  PlannerItemStatus = "completed"
	PlannerItemSkipped    PlannerItemStatus = "skipped"
)

// PlannerItem is one scheduled activity inside a planner, optionally
// referring to a lesson. StartTime and EndTime are "HH:MM".
type PlannerItem struct {
	ID          ID                `json:"id"`
	PlannerID   ID                `json:"plannerId"`
	LessonID    ID                `json:"lessonId,omitempty"`
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description,omitempty" validate:"max=2000"`
	Date        Date              `json:"date"`
	StartTime   string            `json:"startTime,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime     string            `json:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	Status      PlannerItemStatus `json:"status,omitempty" validate:"omitempty,oneof=planned in_progress completed skipped"`
	OwnerID     ID                `json:"ownerId,omitempty"`
	Timestamps
}

func (i PlannerItem) EntityID() ID { return i.ID }

func (i PlannerItem) ParentID() ID { return i.PlannerID }
