package echoapi

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

type statsApi struct {
	users   *user.Service
	schools *school.Service
	scores  *score.Service
}

func registerStatsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := statsApi{users: deps.UserSvc, schools: deps.SchoolSvc, scores: deps.ScoreSvc}
	g.GET("/admin/stats", api.retrieve, jwt, rolesMiddleware(user.RoleAdmin, user.RolePrincipal))
}

func (api *statsApi) retrieve(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	students, err := api.schools.CountStudents(rctx)
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	users, err := api.users.Count(rctx)
	if err != nil {
		return errors.Wrap(err, "counting users")
	}
	avg, err := api.scores.AverageTotal(rctx)
	if err != nil {
		return errors.Wrap(err, "averaging scores")
	}

	return ctx.JSON(http.StatusOK, StatsResponse{
		TotalStudents: students,
		TotalUsers:    users,
		AverageScore:  math.Round(avg*10) / 10,
	})
}

type StatsResponse struct {
	TotalStudents int     `json:"total_students"`
	TotalUsers    int     `json:"total_users"`
	AverageScore  float64 `json:"average_score"`
}
