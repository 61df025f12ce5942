package routes

import (
	"github.com/gin-gonic/gin"

	"todo-app/internal/controller"
	"todo-app/internal/middleware"
	"todo-app/internal/web"
)

// Router builds the HTTP surface: JSON API, HTML page and live feed.
func Router(todos controller.Todos, feed controller.Subscriber) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequestLogger(), gin.Recovery())
	router.SetHTMLTemplate(web.Templates())

	tc := controller.NewTodoController(todos)
	fc := controller.NewFeedController(feed)

	// Health for load balancers and K8s probes
	router.GET("/health", controller.Health)
	router.GET("/ready", tc.Ready)

	api := router.Group("/todos")
	{
		api.GET("", tc.GetTodos)
		api.POST("", tc.CreateTodo)
		api.GET("/:id", tc.GetTodo)
		api.PUT("/:id", tc.UpdateTodo)
		api.DELETE("/:id", tc.DeleteTodo)
	}

	router.GET("/", tc.Index)
	ui := router.Group("/ui/todos")
	{
		ui.POST("", tc.AddFromForm)
		ui.POST("/:id/toggle", tc.ToggleFromForm)
		ui.POST("/:id/delete", tc.DeleteFromForm)
	}

	router.GET("/ws", fc.Stream)

	return router
}
