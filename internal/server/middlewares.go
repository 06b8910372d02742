package server

import (
	"context"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/config"
)

// AuthMiddleware trusts identity headers asserted by the API gateway:
// X-Client-Id must match this deployment's CLIENT_ID and X-Uid names
// the caller. The matching user row's id and role go into the request
// context for downstream actor attribution.
func (s *Server) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var (
			reqClientID = c.Request().Header.Get(config.HEADER_KEY_X_CLIENT_ID)
			reqUID      = c.Request().Header.Get(config.HEADER_KEY_X_UID)
			clientID    = os.Getenv(config.ENV_KEY_CLIENT_ID)
		)

		if reqClientID == "" || reqUID == "" || reqClientID != clientID {
			return c.JSON(401, map[string]string{"error": "missing or invalid identity headers"})
		}

		ctx := c.Request().Context()
		user, err := s.server.GetUserByUID(ctx, reqUID)
		if err != nil {
			return c.JSON(401, map[string]string{
				"error":   err.Error(),
				"message": "User not found",
			})
		}

		ctx = context.WithValue(ctx, config.CTX_KEY_USER_ID, user.ID)
		ctx = context.WithValue(ctx, config.CTX_KEY_USER_ROLE, user.Role)

		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
