package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"todo-app/internal/models"
	"todo-app/internal/store"
	"todo-app/pkg/logger"
)

// Todos is the store surface the handlers use; *store.Store satisfies it.
type Todos interface {
	Load(ctx context.Context) (models.Collection, error)
	List(ctx context.Context) ([]models.Todo, error)
	Get(ctx context.Context, id int64) (models.Todo, error)
	Create(ctx context.Context, title, description string) (models.Todo, error)
	Update(ctx context.Context, id int64, completed bool) (models.Todo, error)
	Toggle(ctx context.Context, id int64) (models.Todo, error)
	Delete(ctx context.Context, id int64) (models.Todo, error)
}

type TodoController struct {
	todos Todos
}

func NewTodoController(todos Todos) *TodoController {
	return &TodoController{todos: todos}
}

// Bodies bind from JSON or from query/form values, so both
// `POST /todos {"title":"x"}` and `POST /todos?title=x` work.
type createTodoRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

type updateTodoRequest struct {
	Completed *bool `json:"completed" form:"completed"`
}

// GetTodos returns every todo in insertion order.
func (tc *TodoController) GetTodos(c *gin.Context) {
	todos, err := tc.todos.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (tc *TodoController) GetTodo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	todo, err := tc.todos.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// CreateTodo stores a new todo and returns it with 201.
func (tc *TodoController) CreateTodo(c *gin.Context) {
	var body createTodoRequest
	if err := c.ShouldBind(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	todo, err := tc.todos.Create(c.Request.Context(), body.Title, body.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

// UpdateTodo sets the completed flag; the flag is required.
func (tc *TodoController) UpdateTodo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body updateTodoRequest
	if err := c.ShouldBind(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if body.Completed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "completed is required"})
		return
	}
	todo, err := tc.todos.Update(c.Request.Context(), id, *body.Completed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// DeleteTodo removes a todo and returns what was removed.
func (tc *TodoController) DeleteTodo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	todo, err := tc.todos.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Health returns 200 if the process is alive. Used by load balancers.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if the storage backend can be read. Used by K8s readiness probes.
func (tc *TodoController) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if _, err := tc.todos.Load(ctx); err != nil {
		logger.Warn(ctx, "Readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "storage unavailable"})
		return
	}
	c.String(http.StatusOK, "OK")
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid todo id"})
		return 0, false
	}
	return id, true
}

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrStorageConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrBusy), errors.Is(err, store.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	if ctx.Err() != nil && isContextErr(err) {
		// client went away; nothing useful to send
		c.Abort()
		return
	}
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "Todo request failed", "error", err)
		c.Error(err)
		switch {
		case errors.Is(err, store.ErrStorageCorrupt):
			msg = "Todo storage is corrupt"
		case errors.Is(err, store.ErrStorageUnavailable):
			msg = "Todo storage unavailable"
		case errors.Is(err, store.ErrBusy):
			msg = "Server busy, retry later"
		default:
			msg = "Internal server error"
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
