package domain

import "time"

// Priority ranks a task's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority token.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Column is the workflow stage a task sits in. Any column is reachable from
// any other column; there is no transition guard.
type Column string

const (
	ColumnTodo       Column = "todo"
	ColumnInProgress Column = "in_progress"
	ColumnDone       Column = "done"
)

// Valid reports whether c is a known column token.
func (c Column) Valid() bool {
	switch c {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	}
	return false
}

// Task is a single card on a board. BoardID is a non-owning back-reference
// and never changes after creation.
type Task struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Column      Column     `json:"column"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskCreate is the request payload for creating a task. An empty priority
// defaults to medium; new tasks always start in the todo column.
type TaskCreate struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskUpdate carries a partial task update. Nil fields are left untouched; a
// JSON null counts as absent.
type TaskUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *Priority  `json:"priority"`
	Column      *Column    `json:"column"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskMove targets a column for a drag-and-drop move.
type TaskMove struct {
	Column Column `json:"column"`
}
