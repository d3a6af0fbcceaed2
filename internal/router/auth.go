package router

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"bizdesk/internal/auth"
	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/handler"
	"bizdesk/internal/service"
)

const tokenContextKey = "user"

// bearerAuth verifies the signature and expiry of the bearer token and
// stores its claims on the context. Every failure is reported as
// ErrAuthentication.
func bearerAuth(tokens *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: tokenContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return tokens.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.ErrAuthentication
		},
	})
}

// session resolves verified claims against the token store so revoked
// tokens stop working, then stores the account on the context.
func session(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(tokenContextKey).(*auth.Claims)
			if !ok {
				return apperrors.ErrAuthentication
			}

			user, err := authService.ResolveSession(c.Request().Context(), claims)
			if err != nil {
				return err
			}
			handler.SetCurrentUser(c, user)
			return next(c)
		}
	}
}
