package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/assignment"
	"github.com/nm2tech/classroom/core/user"
)

type assignmentApi struct {
	svc    *assignment.Service
	usrSvc *user.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service, usrSvc *user.Service) {
	api := assignmentApi{svc: svc, usrSvc: usrSvc}

	ag := g.Group("/assignments", jwt)

	view := requireAnyAction(user.ActionAssignments, user.ActionAssignmentView, user.ActionOwnAssignments)
	manage := requireAction(user.ActionAssignments)

	ag.GET("", api.upcoming, view)
	ag.GET("/:id", api.retrieve, view)
	ag.POST("", api.create, manage)
	ag.DELETE("/:id", api.destroy, manage)

	// students write their own progress
	own := requireAction(user.ActionOwnAssignments)
	ag.POST("/:id/progress", api.saveProgress, own)
	ag.POST("/:id/complete", api.complete, own)

	ag.GET("/progress/:studentID", api.studentProgress)
}

// Handlers

func (api *assignmentApi) upcoming(ctx echo.Context) error {
	as, err := api.svc.Upcoming(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing upcoming assignments")
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	a, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	proceed, err := checkConfirm(ctx, confirmScope(core.TableAssignments, id))
	if !proceed {
		return err
	}

	n, err := api.svc.Delete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.JSON(http.StatusOK, AffectedResponse{Deleted: n})
}

func (api *assignmentApi) saveProgress(ctx echo.Context) error {
	return api.upsertProgress(ctx, false)
}

func (api *assignmentApi) complete(ctx echo.Context) error {
	return api.upsertProgress(ctx, true)
}

func (api *assignmentApi) upsertProgress(ctx echo.Context, completed bool) error {
	var patch assignment.ProgressPatch
	if err := ctx.Bind(&patch); err != nil {
		return errors.Wrap(err, "binding to ProgressPatch")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var (
		prog assignment.Progress
		id   = ctx.Param("id")
	)
	if completed {
		prog, err = api.svc.MarkCompleted(ctx.Request().Context(), claims.Subject, id, patch)
	} else {
		prog, err = api.svc.SaveProgress(ctx.Request().Context(), claims.Subject, id, patch)
	}
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *assignmentApi) studentProgress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	studentID := ctx.Param("studentID")
	if err := api.authorizeProgressRead(ctx, claims, studentID); err != nil {
		return err
	}

	progress, err := api.svc.ProgressForStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "listing student progress")
	}
	return ctx.JSON(http.StatusOK, progress)
}

// authorizeProgressRead allows staff, the student themselves, and the
// student's own parent.
func (api *assignmentApi) authorizeProgressRead(ctx echo.Context, claims Claims, studentID string) error {
	if user.CanAccess(claims.Role, user.ActionAssignments) {
		return nil
	}
	if claims.Subject == studentID && user.CanAccess(claims.Role, user.ActionOwnAssignments) {
		return nil
	}
	if user.CanAccess(claims.Role, user.ActionChildProgress) {
		student, err := api.usrSvc.GetByID(ctx.Request().Context(), studentID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding student")
		}
		if student.ParentID.Valid && student.ParentID.String == claims.Subject {
			return nil
		}
	}
	return errHttpForbidden
}
