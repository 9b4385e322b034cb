package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/event"
	"github.com/nm2tech/classroom/core/user"
)

type eventApi struct {
	svc *event.Service
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *event.Service) {
	api := eventApi{svc: svc}

	eg := g.Group("/events", jwt)

	view := requireAnyAction(user.ActionEvents, user.ActionEventView)
	manage := requireAction(user.ActionEvents)

	eg.GET("", api.upcoming, view)
	eg.GET("/:id", api.retrieve, view)
	eg.POST("", api.create, manage)
	eg.PUT("/:id", api.update, manage)
	eg.DELETE("/:id", api.destroy, manage)

	eg.POST("/:id/rsvp", api.rsvp, requireAction(user.ActionEventView))
	eg.GET("/:id/rsvps", api.rsvps, manage)
}

// Handlers

func (api *eventApi) upcoming(ctx echo.Context) error {
	evs, err := api.svc.Upcoming(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing upcoming events")
	}
	return ctx.JSON(http.StatusOK, evs)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	ev, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding event")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ev, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *eventApi) update(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ev, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	proceed, err := checkConfirm(ctx, confirmScope(core.TableEvents, id))
	if !proceed {
		return err
	}

	n, err := api.svc.Delete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.JSON(http.StatusOK, AffectedResponse{Deleted: n})
}

func (api *eventApi) rsvp(ctx echo.Context) error {
	var data event.NewRSVP
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRSVP")
	}
	data.EventID = ctx.Param("id")
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rsvp, err := api.svc.Respond(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, rsvp)
}

func (api *eventApi) rsvps(ctx echo.Context) error {
	rsvps, err := api.svc.RSVPs(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing rsvps")
	}
	return ctx.JSON(http.StatusOK, rsvps)
}
