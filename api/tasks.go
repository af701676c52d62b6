package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
)

func listBoardTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newListRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		boardID := c.Param("id")

		var priority domain.Priority
		if v := c.QueryParam("priority"); v != "" {
			priority = domain.Priority(v)
			if !priority.Valid() {
				metrics.SetErrorStage("invalid_priority")
				err = c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid priority filter"})
				return err
			}
		}
		var column domain.Column
		if v := c.QueryParam("column"); v != "" {
			column = domain.Column(v)
			if !column.Valid() {
				metrics.SetErrorStage("invalid_column")
				err = c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid column filter"})
				return err
			}
		}
		metrics.SetFiltered(priority != "" || column != "")

		fetchStart := time.Now()
		board, fetchErr := store.GetBoard(ctx, boardID)
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Detail: fetchErr.Error()})
			return err
		}
		if board == nil {
			metrics.SetErrorStage("board_missing")
			err = c.JSON(http.StatusNotFound, errorResponse{Detail: "Board not found"})
			return err
		}
		tasks, fetchErr := store.ListTasks(ctx, boardID, priority, column)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Detail: fetchErr.Error()})
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		boardID := c.Param("id")
		var req domain.TaskCreate
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		if req.Title == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "title is required"})
		}
		priority := req.Priority
		if priority == "" {
			priority = domain.PriorityMedium
		}
		if !priority.Valid() {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid priority"})
		}
		board, err := store.GetBoard(ctx, boardID)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if board == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Board not found"})
		}
		now := time.Now().UTC()
		task := domain.Task{
			ID:          uuid.NewString(),
			BoardID:     boardID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    priority,
			Column:      domain.ColumnTodo,
			DueDate:     req.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.InsertTask(ctx, task); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func getTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := store.GetTask(c.Request().Context(), c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if task == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Task not found"})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func updateTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		var req domain.TaskUpdate
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		if req.Title != nil && *req.Title == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "title must not be empty"})
		}
		if req.Priority != nil && !req.Priority.Valid() {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid priority"})
		}
		if req.Column != nil && !req.Column.Valid() {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid column"})
		}
		task, err := store.GetTask(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if task == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Task not found"})
		}
		if err := store.UpdateTask(ctx, task.BoardID, id, req, time.Now().UTC()); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		updated, err := store.GetTask(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if updated == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Task not found"})
		}
		return c.JSON(http.StatusOK, updated)
	}
}

// moveTask sets the column unconditionally; any column may move to any other
// column, including itself.
func moveTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		var req domain.TaskMove
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		if !req.Column.Valid() {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid column"})
		}
		task, err := store.GetTask(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if task == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Task not found"})
		}
		upd := domain.TaskUpdate{Column: &req.Column}
		if err := store.UpdateTask(ctx, task.BoardID, id, upd, time.Now().UTC()); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		updated, err := store.GetTask(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if updated == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Task not found"})
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		task, err := store.GetTask(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if task == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Task not found"})
		}
		if err := store.DeleteTask(ctx, task.BoardID, id); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Task deleted successfully"})
	}
}
