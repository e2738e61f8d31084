package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

type remarkApi struct {
	svc *remark.Service
}

func registerRemarkAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := remarkApi{svc: deps.RemarkSvc}

	rg := g.Group("/remarks", jwt, rolesMiddleware(user.RoleFormMaster, user.RolePrincipal, user.RoleAdmin))
	rg.GET("", api.retrieve)
	rg.PUT("", api.save)
	rg.POST("/draft", api.draft)
}

func (api *remarkApi) retrieve(ctx echo.Context) error {
	r, err := api.svc.Get(ctx.Request().Context(), ctx.QueryParam("student_id"), ctx.QueryParam("term_id"))
	if err != nil {
		return errors.Wrap(err, "finding remark")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *remarkApi) save(ctx echo.Context) error {
	var data remark.UpdateRemark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRemark")
	}

	r, err := api.svc.Save(ctx.Request().Context(), getActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "saving remark")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *remarkApi) draft(ctx echo.Context) error {
	var data remark.DraftRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DraftRequest")
	}

	text, err := api.svc.Draft(ctx.Request().Context(), data, getActor(ctx).Role)
	if err != nil {
		return errors.Wrap(err, "drafting remark")
	}
	return ctx.JSON(http.StatusOK, DraftResponse{Remark: text})
}

type DraftResponse struct {
	Remark string `json:"remark"`
}
