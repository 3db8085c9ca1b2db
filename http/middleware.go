package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"chefmarket/pkg/log"
)

const managerIDContextKey = "manager_id"

// managerAuthMiddleware injects the authenticated manager as an explicit
// principal. Upstream infrastructure verifies the token and forwards the
// identity in X-Manager-Id; nothing below this middleware reaches for an
// ambient credential.
func managerAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		managerID, err := strconv.ParseInt(c.Request().Header.Get("X-Manager-Id"), 10, 64)
		if err != nil || managerID <= 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid manager identity")
		}

		c.Set(managerIDContextKey, managerID)
		return next(c)
	}
}

func managerIDFrom(c echo.Context) int64 {
	managerID, _ := c.Get(managerIDContextKey).(int64)
	return managerID
}

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		correlationID := c.Request().Header.Get("Correlation-ID")
		if correlationID == "" {
			correlationID = log.NewCorrelationID()
		}

		ctx := log.ContextWithCorrelationID(c.Request().Context(), correlationID)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
