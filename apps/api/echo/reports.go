package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core/assignment"
	"github.com/nm2tech/classroom/core/event"
	"github.com/nm2tech/classroom/core/newsletter"
	"github.com/nm2tech/classroom/core/user"
)

type reportsApi struct {
	nlSvc *newsletter.Service
	evSvc *event.Service
	asSvc *assignment.Service
}

// ReportCounters is the dashboard summary.
type ReportCounters struct {
	Newsletters int `json:"newsletters"`
	Events      int `json:"events"`
	Assignments int `json:"assignments"`
	RSVPs       int `json:"rsvps"`
}

func registerReportsAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	nlSvc *newsletter.Service,
	evSvc *event.Service,
	asSvc *assignment.Service,
) {
	api := reportsApi{nlSvc: nlSvc, evSvc: evSvc, asSvc: asSvc}
	g.GET("/reports", api.counters, jwt, requireAction(user.ActionReports))
}

func (api *reportsApi) counters(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	nls, err := api.nlSvc.Count(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting newsletters")
	}
	evs, err := api.evSvc.Count(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting events")
	}
	as, err := api.asSvc.Count(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting assignments")
	}
	rsvps, err := api.evSvc.TotalRSVPs(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting rsvps")
	}

	return ctx.JSON(http.StatusOK, ReportCounters{
		Newsletters: nls,
		Events:      evs,
		Assignments: as,
		RSVPs:       rsvps,
	})
}
