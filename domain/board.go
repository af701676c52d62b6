package domain

import "time"

// Board is a kanban surface owning a set of tasks.
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BoardCreate is the request payload for creating a board.
type BoardCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BoardUpdate carries a partial board update. Nil fields are left untouched;
// a JSON null counts as absent.
type BoardUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}
