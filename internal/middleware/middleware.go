package middleware

import (
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
)

// LoopbackOnly rejects requests that do not originate from the local
// machine. The control API exists for a local presentation layer; it is
// never meant to be reachable from the network.
func LoopbackOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
			if err != nil {
				host = c.Request().RemoteAddr
			}
			ip := net.ParseIP(host)
			if ip == nil || !ip.IsLoopback() {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "control API is local only",
				})
			}
			return next(c)
		}
	}
}
