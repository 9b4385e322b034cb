package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/activity"
	"github.com/nm2tech/classroom/core/user"
)

type userApi struct {
	svc    *user.Service
	actSvc *activity.Service
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service, actSvc *activity.Service) {
	api := userApi{svc: svc, actSvc: actSvc}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/logout", api.logout)
	ag.GET("/me", api.me)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.GET("/:id/children", api.children)
	ag.GET("/:id/activity", api.activityLog, requireAction(user.ActionActivityLog))
}

// manageActions maps an account role to the actions that may administer
// accounts of that role. An admin covers them all through its action set.
func manageActions(role string) []string {
	switch role {
	case user.RoleAdmin, user.RoleTeacher:
		return []string{user.ActionTeacherManagement}
	case user.RoleParent:
		return []string{user.ActionParentManagement, user.ActionParents}
	case user.RoleStudent:
		return []string{user.ActionStudents}
	}
	return nil
}

func claimsCanManage(claims Claims, role string) bool {
	for _, action := range manageActions(role) {
		if user.CanAccess(claims.Role, action) {
			return true
		}
	}
	return false
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Username, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	api.svc.Logout(ctx.Request().Context(), user.User{
		ID:       claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
	}, activity.Meta{
		IPAddress: ctx.RealIP(),
		UserAgent: ctx.Request().UserAgent(),
	})
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claimsCanManage(claims, data.Role) {
		return errHttpForbidden
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// no role filter lists every account; only staff managing all roles may
	role := ctx.QueryParam("role")
	if role == "" {
		if !user.CanAccess(claims.Role, user.ActionTeacherManagement) {
			return errHttpForbidden
		}
	} else {
		if !user.ValidRole(role) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
		}
		if !claimsCanManage(claims, role) {
			return errHttpForbidden
		}
	}

	users, err := api.svc.QueryByRole(ctx.Request().Context(), role)
	if err != nil {
		return errors.Wrap(err, "querying users by role")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	id := ctx.Param("id")
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	// own account is always visible
	if claims.Subject != usr.ID && !claimsCanManage(claims, usr.Role) {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	id := ctx.Param("id")
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !claimsCanManage(claims, usr.Role) {
		return errHttpForbidden
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	usr, err = api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	id := ctx.Param("id")
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !claimsCanManage(claims, usr.Role) {
		return errHttpForbidden
	}

	proceed, err := checkConfirm(ctx, confirmScope(core.TableUsers, id))
	if !proceed {
		return err
	}

	n, err := api.svc.Delete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, AffectedResponse{Deleted: n})
}

func (api *userApi) children(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	id := ctx.Param("id")
	// a parent may list their own children; staff need the student action
	if claims.Subject != id && !user.CanAccess(claims.Role, user.ActionStudents) {
		return errHttpForbidden
	}
	if claims.Subject == id && !user.CanAccess(claims.Role, user.ActionChildProgress) &&
		!user.CanAccess(claims.Role, user.ActionStudents) {
		return errHttpForbidden
	}

	children, err := api.svc.Children(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	return ctx.JSON(http.StatusOK, children)
}

func (api *userApi) activityLog(ctx echo.Context) error {
	acts, err := api.actSvc.Query(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying user activity")
	}
	return ctx.JSON(http.StatusOK, acts)
}
