package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	faqsvc "github.com/nm2tech/classroom/services/faq"
)

func registerFaqAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	g.POST("/faq", askFaq, jwt)
}

func askFaq(ctx echo.Context) error {
	var data FaqRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FaqRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	return ctx.JSON(http.StatusOK, FaqResponse{Answer: faqsvc.Respond(data.Question, claims.Role)})
}
