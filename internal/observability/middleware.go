package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// unmatchedRoute labels requests that hit no admin route, so arbitrary paths
// never become metric label values.
const unmatchedRoute = "unmatched"

// quietRoutes are polled by monitors and scrapers and log at trace level.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// AdminMiddleware records one request metric and one log line per admin
// request.
func AdminMiddleware(service string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		route := routeLabel(c)
		status := c.Writer.Status()
		RecordHTTPRequest(service, c.Request.Method, route, status, elapsed)

		requestEvent(logger, route, status).
			Str("service", service).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("admin request")
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

func requestEvent(logger zerolog.Logger, route string, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return logger.Error()
	case status >= 400:
		return logger.Warn()
	case quietRoutes[route]:
		return logger.Trace()
	default:
		return logger.Debug()
	}
}
