package api

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes under the /api prefix on the provided Echo
// instance.
func Register(e *echo.Echo, store Storage, logger *log.Logger) {
	g := e.Group("/api")

	g.GET("/", root())
	g.GET("/health", health(store))

	g.GET("/boards", listBoards(store))
	g.POST("/boards", createBoard(store))
	g.GET("/boards/:id", getBoard(store))
	g.PUT("/boards/:id", updateBoard(store))
	g.DELETE("/boards/:id", deleteBoard(store))

	g.GET("/boards/:id/tasks", listBoardTasks(store, logger))
	g.POST("/boards/:id/tasks", createTask(store))
	g.GET("/tasks/:id", getTask(store))
	g.PUT("/tasks/:id", updateTask(store))
	g.PATCH("/tasks/:id/move", moveTask(store))
	g.DELETE("/tasks/:id", deleteTask(store))
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	return sonic.ConfigStd.NewDecoder(lr).Decode(v)
}

func root() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, messageResponse{Message: "Kanban Board API is running"})
	}
}

func health(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Health(c.Request().Context()); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "database connection failed: " + err.Error()})
		}
		return c.JSON(http.StatusOK, healthResponse{Status: "healthy", Database: "connected"})
	}
}
