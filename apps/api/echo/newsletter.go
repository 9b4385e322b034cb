package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/newsletter"
	"github.com/nm2tech/classroom/core/user"
)

type newsletterApi struct {
	svc    *newsletter.Service
	usrSvc *user.Service
}

func registerNewsletterAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *newsletter.Service, usrSvc *user.Service) {
	api := newsletterApi{svc: svc, usrSvc: usrSvc}

	ng := g.Group("/newsletters", jwt)

	view := requireAnyAction(user.ActionNewsletters, user.ActionNewsletterView)
	manage := requireAction(user.ActionNewsletters)

	ng.GET("", api.list, view)
	ng.GET("/latest", api.latest, view)
	ng.GET("/:id", api.retrieve, view)
	ng.GET("/:id/pdf", api.pdf, view)

	ng.POST("", api.create, manage)
	ng.POST("/sample", api.loadSample, manage)
	ng.PUT("/:id", api.update, manage)
	ng.DELETE("", api.destroyAll, manage)
	ng.DELETE("/:id", api.destroy, manage)
	ng.POST("/:id/send", api.send, manage)
}

// Handlers

func (api *newsletterApi) list(ctx echo.Context) error {
	limit := 5
	if raw := ctx.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	nls, err := api.svc.List(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "listing newsletters")
	}
	return ctx.JSON(http.StatusOK, nls)
}

func (api *newsletterApi) latest(ctx echo.Context) error {
	nl, err := api.svc.Latest(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == newsletter.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding latest newsletter")
	}
	return ctx.JSON(http.StatusOK, nl)
}

func (api *newsletterApi) retrieve(ctx echo.Context) error {
	nl, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == newsletter.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding newsletter")
	}
	return ctx.JSON(http.StatusOK, nl)
}

func (api *newsletterApi) create(ctx echo.Context) error {
	var data newsletter.NewNewsletter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNewsletter")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	nl, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, nl)
}

func (api *newsletterApi) loadSample(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	nl, err := api.svc.LoadSample(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "loading sample newsletter")
	}
	return ctx.JSON(http.StatusCreated, nl)
}

func (api *newsletterApi) update(ctx echo.Context) error {
	var data newsletter.NewNewsletter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNewsletter")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	nl, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == newsletter.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, nl)
}

func (api *newsletterApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	proceed, err := checkConfirm(ctx, confirmScope(core.TableNewsletters, id))
	if !proceed {
		return err
	}

	n, err := api.svc.Delete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting newsletter")
	}
	return ctx.JSON(http.StatusOK, AffectedResponse{Deleted: n})
}

func (api *newsletterApi) destroyAll(ctx echo.Context) error {
	proceed, err := checkConfirm(ctx, confirmScope(core.TableNewsletters, "*"))
	if !proceed {
		return err
	}

	n, err := api.svc.DeleteAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "deleting newsletters")
	}
	return ctx.JSON(http.StatusOK, AffectedResponse{Deleted: n})
}

func (api *newsletterApi) pdf(ctx echo.Context) error {
	nl, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == newsletter.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding newsletter")
	}

	data, err := api.svc.RenderPDF(nl)
	if err != nil {
		return errors.Wrap(err, "rendering newsletter pdf")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="newsletter_`+nl.Date+`.pdf"`)
	return ctx.Blob(http.StatusOK, "application/pdf", data)
}

func (api *newsletterApi) send(ctx echo.Context) error {
	nl, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == newsletter.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding newsletter")
	}

	recipients, err := api.usrSvc.ParentEmails(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "collecting parent emails")
	}
	if len(recipients) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no parent emails on file")
	}

	if err := api.svc.Send(nl, recipients); err != nil {
		return errors.Wrap(err, "sending newsletter")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"sent_to": len(recipients)})
}
