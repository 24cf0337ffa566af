package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/sponsorship"
)

type sponsorshipApi struct {
	svc      sponsorship.Service
	matchSvc jobmatch.Service
	validate *validator.Validate
}

func registerSponsorshipAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc sponsorship.Service,
	matchSvc jobmatch.Service,
	validate *validator.Validate,
) {
	api := sponsorshipApi{
		svc:      svc,
		matchSvc: matchSvc,
		validate: validate,
	}

	sg := g.Group("/sponsorships", jwt)
	sg.POST("", api.create)
	sg.GET("/latest", api.retrieveLatest)
	sg.PUT("/latest", api.updateLatest)
	sg.GET("/job-matches", api.jobMatches)
}

// Handlers

func (api *sponsorshipApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data sponsorship.NewProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}
	data.UserID = claims.Subject
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating sponsorship profile")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *sponsorshipApi) retrieveLatest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	p, err := api.svc.GetLatest(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting latest sponsorship profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *sponsorshipApi) updateLatest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data sponsorship.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.UpdateLatest(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating latest sponsorship profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *sponsorshipApi) jobMatches(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	matches, err := api.matchSvc.MatchJobsByUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "matching jobs")
	}
	return ctx.JSON(http.StatusOK, matches)
}
