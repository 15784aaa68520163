package auth

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"stockroom/internal/errors"
	"stockroom/internal/model"
)

const claimsContextKey = "claims"

// Middleware returns the echo-jwt middleware that validates bearer access
// tokens and stores the parsed claims on the context.
func Middleware(jwtService *JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateAccessToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "missing or invalid access token",
				Code:  "UNAUTHORIZED",
			})
		},
	})
}

// ClaimsFrom returns the claims stored by Middleware, or nil.
func ClaimsFrom(c echo.Context) *Claims {
	claims, _ := c.Get(claimsContextKey).(*Claims)
	return claims
}

// RequireRole lets the request through only when the caller holds one of roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "missing or invalid access token",
					Code:  "UNAUTHORIZED",
				})
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
				Error: "insufficient role",
				Code:  "FORBIDDEN",
			})
		}
	}
}
