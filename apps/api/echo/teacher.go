package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mkabeya/kazi/core"
	"github.com/mkabeya/kazi/core/teacher"
)

type authApi struct {
	conf       *core.Config
	svc        *teacher.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAuthAPI(g *echo.Group, opts *Options) {
	api := authApi{
		conf:       opts.Conf,
		svc:        opts.TeacherSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	g.POST("/signup", api.signup)

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
}

// Handlers

func (api *authApi) signup(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	tchr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}

	return ctx.JSON(http.StatusCreated, tchr)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tchr, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}

	claims := GetTeacherClaims(api.conf, tchr)
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	ctx.SetCookie(newSessionCookie(token, claims))
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *authApi) logout(ctx echo.Context) error {
	ctx.SetCookie(expiredSessionCookie())
	return ctx.NoContent(http.StatusNoContent)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
