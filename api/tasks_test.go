package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
)

func seedTask(store *mockStore, id, boardID string, priority domain.Priority, column domain.Column) domain.Task {
	now := time.Now().UTC().Add(-time.Hour)
	task := domain.Task{
		ID:        id,
		BoardID:   boardID,
		Title:     "task " + id,
		Priority:  priority,
		Column:    column,
		CreatedAt: now,
		UpdatedAt: now,
	}
	store.tasks[id] = task
	return task
}

func listTasksContext(e *echo.Echo, target, boardID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/boards/:id/tasks")
	c.SetParamNames("id")
	c.SetParamValues(boardID)
	return c, rec
}

func TestCreateTaskDefaults(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")

	body := `{"title":"Fix bug"}`
	req := httptest.NewRequest(http.MethodPost, "/api/boards/b1/tasks", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/boards/:id/tasks")
	c.SetParamNames("id")
	c.SetParamValues("b1")

	if err := createTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var task domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if task.ID == "" || task.BoardID != "b1" {
		t.Fatalf("unexpected task identity: %#v", task)
	}
	if task.Priority != domain.PriorityMedium {
		t.Fatalf("expected default priority medium, got %q", task.Priority)
	}
	if task.Column != domain.ColumnTodo {
		t.Fatalf("expected default column todo, got %q", task.Column)
	}
	if task.DueDate != nil {
		t.Fatalf("expected no due date, got %v", task.DueDate)
	}
}

func TestCreateTaskMissingTitle(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")

	req := httptest.NewRequest(http.MethodPost, "/api/boards/b1/tasks", strings.NewReader(`{"priority":"high"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/boards/:id/tasks")
	c.SetParamNames("id")
	c.SetParamValues("b1")

	if err := createTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected no task to be persisted")
	}
}

func TestCreateTaskBoardMissing(t *testing.T) {
	e := echo.New()
	store := newMockStore()

	req := httptest.NewRequest(http.MethodPost, "/api/boards/missing/tasks", strings.NewReader(`{"title":"Fix bug"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/boards/:id/tasks")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := createTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected no task record to be created")
	}
}

func TestCreateTaskDueDateRoundTrip(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")
	want := time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC)

	body := `{"title":"Ship release","due_date":"2026-09-15T12:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/boards/b1/tasks", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/boards/:id/tasks")
	c.SetParamNames("id")
	c.SetParamValues("b1")

	if err := createTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var created domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks/"+created.ID, nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id")
	c.SetParamNames("id")
	c.SetParamValues(created.ID)

	if err := getTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var fetched domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if fetched.DueDate == nil || !fetched.DueDate.Equal(want) {
		t.Fatalf("expected due date %v, got %v", want, fetched.DueDate)
	}
}

func TestListTasksFiltersByPriority(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")
	seedTask(store, "t1", "b1", domain.PriorityHigh, domain.ColumnTodo)
	seedTask(store, "t2", "b1", domain.PriorityLow, domain.ColumnTodo)
	seedTask(store, "t3", "b1", domain.PriorityHigh, domain.ColumnDone)

	c, rec := listTasksContext(e, "/api/boards/b1/tasks?priority=high", "b1")
	if err := listBoardTasks(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 high priority tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Priority != domain.PriorityHigh {
			t.Fatalf("unexpected priority: %q", task.Priority)
		}
	}
}

func TestListTasksFilterIntersection(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")
	seedTask(store, "t1", "b1", domain.PriorityHigh, domain.ColumnTodo)
	seedTask(store, "t2", "b1", domain.PriorityHigh, domain.ColumnDone)
	seedTask(store, "t3", "b1", domain.PriorityLow, domain.ColumnTodo)

	c, rec := listTasksContext(e, "/api/boards/b1/tasks?priority=high&column=todo", "b1")
	if err := listBoardTasks(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("expected only t1 in the intersection, got %#v", tasks)
	}
	if store.lastPriority != domain.PriorityHigh || store.lastColumn != domain.ColumnTodo {
		t.Fatalf("expected both filters forwarded to storage, got %q/%q", store.lastPriority, store.lastColumn)
	}
}

func TestListTasksInvalidFilter(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")

	c, rec := listTasksContext(e, "/api/boards/b1/tasks?priority=urgent", "b1")
	if err := listBoardTasks(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestListTasksBoardMissing(t *testing.T) {
	e := echo.New()
	store := newMockStore()

	c, rec := listTasksContext(e, "/api/boards/missing/tasks", "missing")
	if err := listBoardTasks(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func moveTaskOnce(t *testing.T, e *echo.Echo, store *mockStore, id string, column domain.Column) domain.Task {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+id+"/move", strings.NewReader(`{"column":"`+string(column)+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id/move")
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := moveTask(store)(c); err != nil {
		t.Fatalf("move to %s: %v", column, err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("move to %s: expected status 200 got %d", column, rec.Code)
	}
	var task domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return task
}

func TestMoveTaskThroughColumns(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")
	seedTask(store, "t1", "b1", domain.PriorityMedium, domain.ColumnTodo)

	if task := moveTaskOnce(t, e, store, "t1", domain.ColumnInProgress); task.Column != domain.ColumnInProgress {
		t.Fatalf("expected in_progress, got %q", task.Column)
	}
	if task := moveTaskOnce(t, e, store, "t1", domain.ColumnDone); task.Column != domain.ColumnDone {
		t.Fatalf("expected done, got %q", task.Column)
	}
	// No transition guard: done straight back to todo is allowed.
	if task := moveTaskOnce(t, e, store, "t1", domain.ColumnTodo); task.Column != domain.ColumnTodo {
		t.Fatalf("expected todo, got %q", task.Column)
	}
}

func TestMoveTaskInvalidColumn(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")
	seedTask(store, "t1", "b1", domain.PriorityMedium, domain.ColumnTodo)

	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/t1/move", strings.NewReader(`{"column":"archived"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id/move")
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := moveTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if store.tasks["t1"].Column != domain.ColumnTodo {
		t.Fatalf("expected column to be untouched")
	}
}

func TestMoveTaskNotFound(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/missing/move", strings.NewReader(`{"column":"done"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id/move")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := moveTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")
	prev := seedTask(store, "t1", "b1", domain.PriorityMedium, domain.ColumnTodo)

	req := httptest.NewRequest(http.MethodPut, "/api/tasks/t1", strings.NewReader(`{"priority":"high"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id")
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := updateTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var task domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if task.Priority != domain.PriorityHigh {
		t.Fatalf("expected priority high, got %q", task.Priority)
	}
	if task.Title != prev.Title {
		t.Fatalf("expected title unchanged, got %q", task.Title)
	}
	if task.Column != prev.Column {
		t.Fatalf("expected column unchanged, got %q", task.Column)
	}
	if task.UpdatedAt.Before(prev.UpdatedAt) {
		t.Fatalf("expected updated_at to advance")
	}
}

func TestUpdateTaskCanChangeColumn(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")
	seedTask(store, "t1", "b1", domain.PriorityMedium, domain.ColumnTodo)

	req := httptest.NewRequest(http.MethodPut, "/api/tasks/t1", strings.NewReader(`{"column":"in_progress"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id")
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := updateTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if store.tasks["t1"].Column != domain.ColumnInProgress {
		t.Fatalf("expected general update to move the column")
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	req := httptest.NewRequest(http.MethodPut, "/api/tasks/missing", strings.NewReader(`{"title":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := updateTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	e := echo.New()
	store := newMockStore()
	seedBoard(store, "b1", "Sprint 1")
	seedTask(store, "t1", "b1", domain.PriorityMedium, domain.ColumnTodo)

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/t1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id")
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := deleteTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if _, ok := store.tasks["t1"]; ok {
		t.Fatalf("expected task to be deleted")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks/t1", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetPath("/api/tasks/:id")
	c.SetParamNames("id")
	c.SetParamValues("t1")
	if err := getTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", rec.Code)
	}
}
