package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-app/internal/models"
	"todo-app/internal/store"
)

type pageData struct {
	Todos       []models.Todo
	Error       string
	Title       string
	Description string
}

// Index renders the todo page. Needs the engine's HTML templates (web.Templates).
func (tc *TodoController) Index(c *gin.Context) {
	tc.renderPage(c, http.StatusOK, pageData{})
}

// AddFromForm handles the page's add form and redirects back to the list.
func (tc *TodoController) AddFromForm(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")
	if _, err := tc.todos.Create(c.Request.Context(), title, description); err != nil {
		if errors.Is(err, store.ErrValidation) {
			tc.renderPage(c, http.StatusBadRequest, pageData{
				Error:       "Title cannot be empty.",
				Title:       title,
				Description: description,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ToggleFromForm flips a todo's completed flag.
func (tc *TodoController) ToggleFromForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := tc.todos.Toggle(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (tc *TodoController) DeleteFromForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := tc.todos.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (tc *TodoController) renderPage(c *gin.Context, status int, data pageData) {
	todos, err := tc.todos.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	data.Todos = todos
	c.HTML(status, "index.html", data)
}
