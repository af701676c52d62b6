package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"kanban-api/domain"
)

func listBoards(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		boards, err := store.ListBoards(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		return c.JSON(http.StatusOK, boards)
	}
}

func createBoard(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var req domain.BoardCreate
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		if req.Name == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "name is required"})
		}
		now := time.Now().UTC()
		board := domain.Board{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.InsertBoard(ctx, board); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		return c.JSON(http.StatusOK, board)
	}
}

func getBoard(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		board, err := store.GetBoard(c.Request().Context(), c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if board == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Board not found"})
		}
		return c.JSON(http.StatusOK, board)
	}
}

func updateBoard(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		var req domain.BoardUpdate
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid body"})
		}
		if req.Name != nil && *req.Name == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "name must not be empty"})
		}
		board, err := store.GetBoard(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if board == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Board not found"})
		}
		if err := store.UpdateBoard(ctx, id, req, time.Now().UTC()); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		updated, err := store.GetBoard(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if updated == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Board not found"})
		}
		return c.JSON(http.StatusOK, updated)
	}
}

// deleteBoard cascades: the board's tasks are removed first, then the board
// itself, so a failure between the two steps leaves orphan tasks rather than
// a board without its tasks. The two deletions are not atomic.
func deleteBoard(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		board, err := store.GetBoard(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if board == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Detail: "Board not found"})
		}
		if err := store.DeleteBoardTasks(ctx, id); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		if err := store.DeleteBoard(ctx, id); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Board deleted successfully"})
	}
}
