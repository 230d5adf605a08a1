package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/noteshub/backend/core/visit"
)

type visitApi struct {
	tracker *visit.Tracker
}

func registerVisitAPI(g *echo.Group, jwt echo.MiddlewareFunc, tracker *visit.Tracker) {
	api := visitApi{tracker: tracker}

	vg := g.Group("/visits", jwt)
	vg.GET("", api.list)
	vg.PUT("/:page", api.record)
}

// Handlers

func (api *visitApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	pages, err := api.tracker.Visited(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing visited pages")
	}
	return ctx.JSON(http.StatusOK, pages)
}

func (api *visitApi) record(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.tracker.Record(ctx.Request().Context(), claims.Subject, ctx.Param("page")); err != nil {
		return errors.Wrap(err, "recording page visit")
	}

	pages, err := api.tracker.Visited(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing visited pages")
	}
	return ctx.JSON(http.StatusOK, pages)
}
