package auth

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"tienda/internal/errors"
)

// ContextKey is the echo context key under which verified claims are stored.
const ContextKey = "user"

// Middleware returns the bearer-token authorization gate. It extracts the
// token from the Authorization header, verifies it through the token service
// and attaches the decoded claims to the request context. Any failure,
// including a missing or prefix-less header, short-circuits with the same
// 401 body; the rejection category only appears in the server log.
func Middleware(tokens *TokenService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			claims, err := tokens.Verify(tokenString)
			if err != nil {
				c.Logger().Warnf("token rejected: %v", err)
				return nil, err
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "unauthorized",
				Code:  "UNAUTHORIZED",
			})
		},
	})
}

// ClaimsFromContext returns the claims attached by Middleware, if any.
func ClaimsFromContext(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(ContextKey).(*Claims)
	return claims, ok
}
