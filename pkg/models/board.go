package models

// BoardStatus is the lifecycle state of a board.
type BoardStatus string

const (
	BoardStatusActive   BoardStatus = "active"
	BoardStatusArchived BoardStatus = "archived"
)

// Board is a collection of items a family pins together, e.g. a unit study.
type Board struct {
	ID          ID          `json:"id"`
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description,omitempty" validate:"max=2000"`
	Status      BoardStatus `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
	Visibility  Visibility  `json:"visibility,omitempty" validate:"omitempty,oneof=private public"`
	OwnerID     ID          `json:"ownerId,omitempty"`
	Timestamps
}

func (b Board) EntityID() ID { return b.ID }

// BoardItemKind classifies what a board item holds.
type BoardItemKind string

const (
	BoardItemNote     BoardItemKind = "note"
	BoardItemTask     BoardItemKind = "task"
	BoardItemLink     BoardItemKind = "link"
	BoardItemResource BoardItemKind = "resource"
)

// BoardItemStatus tracks progress on a board item.
type BoardItemStatus string

const (
	BoardItemTodo       BoardItemStatus = "todo"
	BoardItemInProgress BoardItemStatus = "in_progress"
	BoardItemCompleted  BoardItemStatus = "completed"
)

// BoardItem is a card on a board.
type BoardItem struct {
	ID       ID              `json:"id"`
	BoardID  ID              `json:"boardId"`
	Title    string          `json:"title" validate:"required,max=200"`
	Content  string          `json:"content,omitempty"`
	Kind     BoardItemKind   `json:"kind,omitempty" validate:"omitempty,oneof=note task link resource"`
	Position int             `json:"position" validate:"min=0"`
	Status   BoardItemStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress completed"`
	OwnerID  ID              `json:"ownerId,omitempty"`
	Timestamps
}

func (i BoardItem) EntityID() ID { return i.ID }

func (i BoardItem) ParentID() ID { return i.BoardID }
