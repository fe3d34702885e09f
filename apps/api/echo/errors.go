package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mkabeya/kazi/core"
	"github.com/mkabeya/kazi/core/assignment"
	"github.com/mkabeya/kazi/core/export"
	"github.com/mkabeya/kazi/core/teacher"
	"github.com/mkabeya/kazi/core/work"
)

var errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

// statusFor maps known domain errors to their HTTP status code.
func statusFor(err error) (int, bool) {
	switch err {
	case teacher.ErrInvalidCredentials, teacher.ErrAccountLocked:
		return http.StatusUnauthorized, true
	case work.ErrNotActive, work.ErrExpired, work.ErrAtCapacity:
		return http.StatusForbidden, true
	case teacher.ErrNotFound, assignment.ErrNotFound, work.ErrNotFound, export.ErrNoSubmissions:
		return http.StatusNotFound, true
	case teacher.ErrUsernameExists, assignment.ErrQuotaExceeded, work.ErrAlreadySubmitted:
		return http.StatusConflict, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if status, ok := statusFor(errors.Cause(err)); ok {
				code = status
				message = errors.Cause(err).Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var tchr teacher.Teacher
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				tchr.ID = claims.Subject
				tchr.Username = claims.Username
			}
			logger.Error(msg, errors.Wrap(err, msg), tchr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
