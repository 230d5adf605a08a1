package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/noteshub/backend/core/status"
)

type statusApi struct {
	checker *status.Checker
}

func registerStatusAPI(g *echo.Group, checker *status.Checker) {
	api := statusApi{checker: checker}

	g.GET("/hello", api.hello)
	g.GET("/db-status", api.dbStatus)
}

// Handlers

// hello is the connectivity probe the frontend fires on load.
func (api *statusApi) hello(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Hello from the NotesHub API!"})
}

func (api *statusApi) dbStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.checker.Check(ctx.Request().Context()))
}
