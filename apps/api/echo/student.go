package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mkabeya/kazi/core/work"
)

type studentApi struct {
	svc        *work.Service
	validate   *validator.Validate
	translator ut.Translator
}

// registerStudentAPI mounts the un-authed student endpoints: students
// identify themselves by assignment code and name, never by account.
func registerStudentAPI(g *echo.Group, opts *Options) {
	api := studentApi{
		svc:        opts.WorkSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	sg := g.Group("/student")
	sg.POST("/access", api.access)
	sg.POST("/save", api.save)
	sg.POST("/submit", api.submit)
}

// Handlers

func (api *studentApi) access(ctx echo.Context) error {
	var data work.AccessRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AccessRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Access(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "accessing assignment")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) save(ctx echo.Context) error {
	var data work.SaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	data.IP = ctx.RealIP()

	w, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving draft")
	}
	return ctx.JSON(http.StatusOK, SaveResponse{
		Status:    w.Status,
		WordCount: w.WordCount,
		SavedAt:   w.LastSavedAt,
	})
}

func (api *studentApi) submit(ctx echo.Context) error {
	var data work.SubmitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	data.IP = ctx.RealIP()

	w, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting work")
	}
	return ctx.JSON(http.StatusOK, SubmitResponse{
		Status:      w.Status,
		WordCount:   w.WordCount,
		SubmittedAt: w.SubmittedAt,
	})
}

type (
	SaveResponse struct {
		Status    string    `json:"status"`
		WordCount int       `json:"word_count"`
		SavedAt   time.Time `json:"saved_at"`
	}

	SubmitResponse struct {
		Status      string    `json:"status"`
		WordCount   int       `json:"word_count"`
		SubmittedAt null.Time `json:"submitted_at"`
	}
)
