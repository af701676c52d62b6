package api

import (
	"context"
	"time"

	"kanban-api/domain"
)

// Storage abstracts persistence for handlers. Get methods return nil without
// error when the entity does not exist.
type Storage interface {
	ListBoards(ctx context.Context) ([]domain.Board, error)
	GetBoard(ctx context.Context, id string) (*domain.Board, error)
	InsertBoard(ctx context.Context, b domain.Board) error
	UpdateBoard(ctx context.Context, id string, upd domain.BoardUpdate, updatedAt time.Time) error
	DeleteBoard(ctx context.Context, id string) error

	ListTasks(ctx context.Context, boardID string, priority domain.Priority, column domain.Column) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	InsertTask(ctx context.Context, t domain.Task) error
	UpdateTask(ctx context.Context, boardID, id string, upd domain.TaskUpdate, updatedAt time.Time) error
	DeleteTask(ctx context.Context, boardID, id string) error
	DeleteBoardTasks(ctx context.Context, boardID string) error

	Health(ctx context.Context) error
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
