package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/noteshub/backend/core/note"
	"github.com/noteshub/backend/services/metrics"
)

type noteApi struct {
	svc      *note.Service
	validate *validator.Validate
}

func registerNoteAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *note.Service, validate *validator.Validate) {
	api := noteApi{svc: svc, validate: validate}

	ng := g.Group("/notes", jwt)
	ng.POST("", api.upload)
	ng.GET("", api.browse)
	ng.GET("/:id", api.retrieve)
	ng.POST("/:id/download", api.download)
	ng.POST("/:id/flag", api.flag)
	ng.DELETE("/:id", api.destroy)
}

// Handlers

func (api *noteApi) upload(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data note.NewNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNote")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.Upload(claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "uploading note")
	}
	metrics.NoteUploads.Inc()
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noteApi) browse(ctx echo.Context) error {
	filter := new(note.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []note.Note{})
	}

	// hidden notes stay out of sight for everyone but moderators
	if claims, err := getContextClaims(ctx); err == nil {
		filter.IncludeHidden = claims.IsModerator || claims.IsAdmin
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	notes, err := api.svc.Browse(*filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "browsing notes")
	}
	if notes == nil {
		notes = []note.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *noteApi) retrieve(ctx echo.Context) error {
	n, err := api.getVisibleNote(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) download(ctx echo.Context) error {
	if _, err := api.getVisibleNote(ctx); err != nil {
		return err
	}

	n, err := api.svc.Download(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "recording download")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) flag(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data note.NewFlag
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFlag")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.Flag(ctx.Param("id"), claims.Subject, data.Reason)
	if err != nil {
		if errors.Cause(err) == note.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "flagging note")
	}
	metrics.NoteFlags.Inc()
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == note.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding note by ID")
	}

	// only the uploader, a moderator or an admin may delete a note
	if !(claims.Subject == n.UploaderID || claims.IsModerator || claims.IsAdmin) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(n.ID); err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// getVisibleNote fetches the `:id` note and hides hidden notes from
// non-moderators behind a 404.
func (api *noteApi) getVisibleNote(ctx echo.Context) (note.Note, error) {
	n, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == note.ErrNotFound {
			return note.Note{}, errHttpNotFound
		}
		return note.Note{}, errors.Wrap(err, "finding note by ID")
	}

	if n.IsHidden {
		claims, err := getContextClaims(ctx)
		if err != nil || !(claims.IsModerator || claims.IsAdmin) {
			return note.Note{}, errHttpNotFound
		}
	}
	return n, nil
}
