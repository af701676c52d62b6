package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"kanban-api/domain"
)

// Boards all share one partition; tasks are partitioned by their board so a
// board's task list is a single-partition scan.
const boardPartition = "board"

// Storage provides access to the underlying table storage.
type Storage struct {
	svc        *aztables.ServiceClient
	boardTable *aztables.Client
	taskTable  *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, boardsTable, tasksTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		svc:        svc,
		boardTable: svc.NewClient(boardsTable),
		taskTable:  svc.NewClient(tasksTable),
	}, nil
}

type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type boardEntity struct {
	entityKeys
	Name        string `json:"Name"`
	Description string `json:"Description"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

type boardPatch struct {
	entityKeys
	Name        *string `json:"Name,omitempty"`
	Description *string `json:"Description,omitempty"`
	UpdatedAt   *string `json:"UpdatedAt,omitempty"`
}

type taskEntity struct {
	entityKeys
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Priority    string `json:"Priority"`
	Column      string `json:"Column"`
	DueDate     string `json:"DueDate"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

type taskPatch struct {
	entityKeys
	Title       *string `json:"Title,omitempty"`
	Description *string `json:"Description,omitempty"`
	Priority    *string `json:"Priority,omitempty"`
	Column      *string `json:"Column,omitempty"`
	DueDate     *string `json:"DueDate,omitempty"`
	UpdatedAt   *string `json:"UpdatedAt,omitempty"`
}

// encodeTime serializes a timestamp for table storage. The adapter owns the
// timestamp representation in both directions.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// decodeTime parses a stored timestamp; unparsable values yield the zero time.
func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func boardToEntity(b domain.Board) boardEntity {
	return boardEntity{
		entityKeys:  entityKeys{PartitionKey: boardPartition, RowKey: b.ID},
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   encodeTime(b.CreatedAt),
		UpdatedAt:   encodeTime(b.UpdatedAt),
	}
}

func boardFromEntity(ent boardEntity) domain.Board {
	return domain.Board{
		ID:          ent.RowKey,
		Name:        ent.Name,
		Description: ent.Description,
		CreatedAt:   decodeTime(ent.CreatedAt),
		UpdatedAt:   decodeTime(ent.UpdatedAt),
	}
}

func taskToEntity(t domain.Task) taskEntity {
	ent := taskEntity{
		entityKeys:  entityKeys{PartitionKey: t.BoardID, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Column:      string(t.Column),
		CreatedAt:   encodeTime(t.CreatedAt),
		UpdatedAt:   encodeTime(t.UpdatedAt),
	}
	if t.DueDate != nil {
		ent.DueDate = encodeTime(*t.DueDate)
	}
	return ent
}

func taskFromEntity(ent taskEntity) domain.Task {
	t := domain.Task{
		ID:          ent.RowKey,
		BoardID:     ent.PartitionKey,
		Title:       ent.Title,
		Description: ent.Description,
		Priority:    domain.Priority(ent.Priority),
		Column:      domain.Column(ent.Column),
		CreatedAt:   decodeTime(ent.CreatedAt),
		UpdatedAt:   decodeTime(ent.UpdatedAt),
	}
	if ent.DueDate != "" {
		due := decodeTime(ent.DueDate)
		t.DueDate = &due
	}
	return t
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

// ListBoards returns every stored board.
func (s *Storage) ListBoards(ctx context.Context) ([]domain.Board, error) {
	filter := "PartitionKey eq '" + boardPartition + "'"
	pager := s.boardTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	boards := []domain.Board{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent boardEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			boards = append(boards, boardFromEntity(ent))
		}
	}
	return boards, nil
}

// GetBoard retrieves a board, returning nil when it does not exist.
func (s *Storage) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	resp, err := s.boardTable.GetEntity(ctx, boardPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ent boardEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	b := boardFromEntity(ent)
	return &b, nil
}

// InsertBoard persists a new board.
func (s *Storage) InsertBoard(ctx context.Context, b domain.Board) error {
	payload, err := json.Marshal(boardToEntity(b))
	if err == nil {
		_, err = s.boardTable.AddEntity(ctx, payload, nil)
	}
	return err
}

// UpdateBoard merges the supplied fields into an existing board row.
func (s *Storage) UpdateBoard(ctx context.Context, id string, upd domain.BoardUpdate, updatedAt time.Time) error {
	ts := encodeTime(updatedAt)
	patch := boardPatch{
		entityKeys:  entityKeys{PartitionKey: boardPartition, RowKey: id},
		Name:        upd.Name,
		Description: upd.Description,
		UpdatedAt:   &ts,
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.boardTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return err
}

// DeleteBoard removes the board row only; callers cascade tasks first.
func (s *Storage) DeleteBoard(ctx context.Context, id string) error {
	_, err := s.boardTable.DeleteEntity(ctx, boardPartition, id, nil)
	return err
}

func taskFilter(boardID string, priority domain.Priority, column domain.Column) string {
	parts := []string{"PartitionKey eq '" + boardID + "'"}
	if priority != "" {
		parts = append(parts, "Priority eq '"+string(priority)+"'")
	}
	if column != "" {
		parts = append(parts, "Column eq '"+string(column)+"'")
	}
	return strings.Join(parts, " and ")
}

// ListTasks returns a board's tasks, optionally narrowed by priority and
// column. Both filters are exact-match and compose to the intersection.
func (s *Storage) ListTasks(ctx context.Context, boardID string, priority domain.Priority, column domain.Column) ([]domain.Task, error) {
	filter := taskFilter(boardID, priority, column)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, taskFromEntity(ent))
		}
	}
	return tasks, nil
}

// GetTask looks a task up by id alone. Tasks are partitioned by board, so this
// is a cross-partition RowKey scan. Returns nil when absent.
func (s *Storage) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	filter := "RowKey eq '" + id + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			t := taskFromEntity(ent)
			return &t, nil
		}
	}
	return nil, nil
}

// InsertTask persists a new task.
func (s *Storage) InsertTask(ctx context.Context, t domain.Task) error {
	payload, err := json.Marshal(taskToEntity(t))
	if err == nil {
		_, err = s.taskTable.AddEntity(ctx, payload, nil)
	}
	return err
}

// UpdateTask merges the supplied fields into an existing task row.
func (s *Storage) UpdateTask(ctx context.Context, boardID, id string, upd domain.TaskUpdate, updatedAt time.Time) error {
	ts := encodeTime(updatedAt)
	patch := taskPatch{
		entityKeys:  entityKeys{PartitionKey: boardID, RowKey: id},
		Title:       upd.Title,
		Description: upd.Description,
		UpdatedAt:   &ts,
	}
	if upd.Priority != nil {
		p := string(*upd.Priority)
		patch.Priority = &p
	}
	if upd.Column != nil {
		col := string(*upd.Column)
		patch.Column = &col
	}
	if upd.DueDate != nil {
		due := encodeTime(*upd.DueDate)
		patch.DueDate = &due
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return err
}

// DeleteTask removes a single task row.
func (s *Storage) DeleteTask(ctx context.Context, boardID, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, boardID, id, nil)
	return err
}

// DeleteBoardTasks removes every task in the board's partition, one delete per
// row. A failure partway leaves the remaining tasks in place; the cascade is
// not atomic.
func (s *Storage) DeleteBoardTasks(ctx context.Context, boardID string) error {
	tasks, err := s.ListTasks(ctx, boardID, "", "")
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.DeleteTask(ctx, boardID, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// Health verifies table service connectivity.
func (s *Storage) Health(ctx context.Context) error {
	pager := s.svc.NewListTablesPager(nil)
	_, err := pager.NextPage(ctx)
	return err
}
