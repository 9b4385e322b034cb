package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
)

// confirmScope ties a confirmation token to one delete target.
func confirmScope(table, id string) string {
	return table + ":" + id
}

// checkConfirm implements the two-phase delete handshake. Without a token the
// request is answered with a fresh one and does not delete anything.
func checkConfirm(ctx echo.Context, scope string) (proceed bool, err error) {
	token := ctx.QueryParam("confirm")
	if token == "" {
		confirm, err := core.MakeConfirmToken(scope)
		if err != nil {
			return false, errors.Wrap(err, "making confirmation token")
		}
		return false, ctx.JSON(http.StatusAccepted, ConfirmResponse{ConfirmToken: confirm})
	}
	if err := core.VerifyConfirmToken(scope, token); err != nil {
		return false, errConfirmInvalid
	}
	return true, nil
}
