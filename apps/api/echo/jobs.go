package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/jobmatch"
)

type jobApi struct {
	svc      jobmatch.Service
	validate *validator.Validate
}

func registerJobAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc jobmatch.Service, validate *validator.Validate) {
	api := jobApi{
		svc:      svc,
		validate: validate,
	}

	jg := g.Group("/jobs", jwt, adminMiddleware())
	jg.GET("", api.list)
	jg.POST("", api.importJobs)
}

// Handlers

func (api *jobApi) list(ctx echo.Context) error {
	jobs, err := api.svc.ListJobs(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing jobs")
	}
	return ctx.JSON(http.StatusOK, jobs)
}

func (api *jobApi) importJobs(ctx echo.Context) error {
	var data jobmatch.NewJobs
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewJobs")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	jobs, err := api.svc.ImportJobs(ctx.Request().Context(), data.Jobs)
	if err != nil {
		return errors.Wrap(err, "importing jobs")
	}
	return ctx.JSON(http.StatusCreated, jobs)
}
