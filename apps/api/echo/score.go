package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

type scoreApi struct {
	svc *score.Service
}

func registerScoreAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scoreApi{svc: deps.ScoreSvc}

	sg := g.Group("/scores", jwt)
	sg.GET("", api.query, rolesMiddleware(user.StaffRoles...))
	sg.POST("", api.upsert, rolesMiddleware(user.RoleTeacher, user.RoleFormMaster, user.RoleAdmin))
	sg.POST("/lock", api.lock, rolesMiddleware(user.RolePrincipal, user.RoleAdmin))
	sg.POST("/unlock", api.unlock, rolesMiddleware(user.RolePrincipal, user.RoleAdmin))
}

func (api *scoreApi) query(ctx echo.Context) error {
	filter := new(score.SheetFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to SheetFilter")
	}

	rows, err := api.svc.Get(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "getting score sheet")
	}
	if rows == nil {
		rows = []score.Row{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *scoreApi) upsert(ctx echo.Context) error {
	var data score.NewScore
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScore")
	}

	s, err := api.svc.Upsert(ctx.Request().Context(), getActor(ctx), data)
	if err != nil {
		return errors.Wrap(err, "upserting score")
	}
	return ctx.JSON(http.StatusOK, SaveScoreResponse{Success: true, Score: s})
}

func (api *scoreApi) lock(ctx echo.Context) error {
	return api.setLock(ctx, true)
}

func (api *scoreApi) unlock(ctx echo.Context) error {
	return api.setLock(ctx, false)
}

func (api *scoreApi) setLock(ctx echo.Context, locked bool) error {
	var data score.LockRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LockRequest")
	}

	s, err := api.svc.SetLock(ctx.Request().Context(), getActor(ctx), data, locked)
	if err != nil {
		return errors.Wrap(err, "setting score lock")
	}
	return ctx.JSON(http.StatusOK, SaveScoreResponse{Success: true, Score: s})
}

type SaveScoreResponse struct {
	Success bool        `json:"success"`
	Score   score.Score `json:"score"`
}
