package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/services/export"
)

const formatXLSX = "xlsx"

type resultApi struct {
	svc     *pin.Service
	schools export.Lookup
}

func registerResultAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := resultApi{svc: deps.PinSvc, schools: deps.SchoolSvc}

	// un-authed endpoints
	var throttle []echo.MiddlewareFunc
	if deps.RateLimitStore != nil {
		throttle = append(throttle, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: deps.RateLimitStore,
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
		}))
	}
	g.POST("/results/check", api.checkResult, throttle...)

	// admin endpoints
	pg := g.Group("/pins", jwt, rolesMiddleware(user.RoleAdmin))
	pg.POST("", api.generatePins)
	pg.GET("", api.queryPins)
}

func (api *resultApi) checkResult(ctx echo.Context) error {
	var data pin.CheckRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckRequest")
	}

	actor := audit.Actor{Role: user.RoleParent, IPAddress: ctx.RealIP()}
	card, err := api.svc.CheckResult(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "checking result")
	}
	return ctx.JSON(http.StatusOK, card)
}

// generatePins answers with the new pins, or with an Excel workbook of them when ?format=xlsx.
func (api *resultApi) generatePins(ctx echo.Context) error {
	var data pin.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}

	rctx := ctx.Request().Context()
	pins, err := api.svc.Generate(rctx, getActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "generating pins")
	}

	if ctx.QueryParam("format") != formatXLSX {
		return ctx.JSON(http.StatusCreated, pins)
	}

	batch, err := export.NewPinBatch(rctx, api.schools, pins)
	if err != nil {
		return errors.Wrap(err, "labelling pins")
	}

	var buf bytes.Buffer
	if err = export.WritePinsXLSX(&buf, batch); err != nil {
		return errors.Wrap(err, "writing pins workbook")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "pins-"+core.CleanString(data.TermID)+".xlsx"))
	return ctx.Blob(http.StatusCreated, export.XLSXContentType, buf.Bytes())
}

func (api *resultApi) queryPins(ctx echo.Context) error {
	filter := new(pin.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	pins, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying pins")
	}
	if pins == nil {
		pins = []pin.ResultPin{}
	}
	return ctx.JSON(http.StatusOK, pins)
}
