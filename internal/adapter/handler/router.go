package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-autopilot/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg               *config.Config
	automationHandler *Automation
	trelloHandler     *Trello
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, automationHandler *Automation, trelloHandler *Trello) *Router {
	return &Router{
		cfg:               cfg,
		automationHandler: automationHandler,
		trelloHandler:     trelloHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")

	rt.setupAutomationRoutes(v1)
	rt.setupTrelloRoutes(v1)
}

// setupAutomationRoutes configures the automation pass routes
func (rt *Router) setupAutomationRoutes(g *echo.Group) {
	automationGroup := g.Group("/automations")

	if rt.automationHandler != nil {
		automationGroup.POST("", rt.automationHandler.Run)
		automationGroup.GET("/:batch_id/tasks", rt.automationHandler.ListBatchTasks)
		g.GET("/tasks/:id", rt.automationHandler.GetTask)
	} else {
		automationGroup.POST("", rt.notImplemented)
		automationGroup.GET("/:batch_id/tasks", rt.notImplemented)
		g.GET("/tasks/:id", rt.notImplemented)
	}
}

// setupTrelloRoutes configures tracker metadata routes
func (rt *Router) setupTrelloRoutes(g *echo.Group) {
	trelloGroup := g.Group("/trello")

	if rt.trelloHandler != nil {
		trelloGroup.GET("/boards/:board_id/lists", rt.trelloHandler.ListBoardLists)
	} else {
		trelloGroup.GET("/boards/:board_id/lists", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "unknown"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
