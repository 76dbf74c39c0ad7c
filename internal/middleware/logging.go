package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/grachmannico95/oms-bulk-import/internal/metrics"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

func Logging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			metrics.RecordHTTPRequest(route, c.Request().Method, status)

			fields := []interface{}{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"route", route,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", c.Request().RemoteAddr,
			}

			if status >= http.StatusInternalServerError {
				log.Error(c.Request().Context(), "HTTP request", append(fields, "error", err)...)
				return nil
			}

			log.Info(c.Request().Context(), "HTTP request", fields...)

			return nil
		}
	}
}
