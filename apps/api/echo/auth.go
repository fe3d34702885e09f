package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mkabeya/kazi/core"
	"github.com/mkabeya/kazi/core/teacher"
)

const sessionCookieName = "session-token"

type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "teacherToken",
		Claims:        new(Claims),
		TokenLookup:   "cookie:" + sessionCookieName,
	}
}

func GetTeacherClaims(conf *core.Config, tchr teacher.Teacher) Claims {
	now := time.Now()
	return Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   tchr.ID,
			Issuer:    conf.AppName,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
		},
		Username: tchr.Username,
	}
}

func GenerateToken(conf *core.Config, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(conf.SecretKey))
	return signed, errors.Wrap(err, "signing token")
}

func newSessionCookie(token string, claims Claims) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Unix(claims.ExpiresAt, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	token, ok := ctx.Get("teacherToken").(*jwt.Token)
	if !ok {
		return Claims{}, errors.New("token not found in context")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, errors.New("unexpected token claims")
	}
	return *claims, nil
}

func getContextTeacher(ctx echo.Context, svc *teacher.Service) (teacher.Teacher, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return teacher.Teacher{}, err
	}
	return svc.GetByID(ctx.Request().Context(), claims.Subject)
}
