package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderForumUID carries the caller's user id, set by the forum frontend
// proxy after it has authenticated the session. This service does no
// authentication of its own.
const HeaderForumUID = "X-Forum-UID"

// RequireIdentity extracts the caller UID into the echo context under "uid"
// and rejects requests without one.
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := c.Request().Header.Get(HeaderForumUID)
		if uid == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
		}
		c.Set("uid", uid)
		return next(c)
	}
}
