package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the correlation id of a request.
const RequestIDHeader = "X-Request-ID"

// UnmatchedRoute is the metrics key for requests that matched no route.
const UnmatchedRoute = "unmatched"

const unmatchedLocal = "observability.unmatched"

// MarkUnmatched flags the request as not served by any registered route.
func MarkUnmatched(c *fiber.Ctx) {
	c.Locals(unmatchedLocal, true)
}

// RouteKey returns the registered route pattern serving the request, never
// the raw path, so metric keys stay bounded by the route table.
func RouteKey(c *fiber.Ctx) string {
	if unmatched, _ := c.Locals(unmatchedLocal).(bool); unmatched {
		return UnmatchedRoute
	}
	return c.Route().Path
}

// RequestLogger emits one structured log line per request and feeds the
// request counters. It must run outside the error middleware so the status
// it records for failed requests is the one the error handler wrote.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		metrics.RecordRequest(RouteKey(c), c.Method(), status, elapsed)

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
		return err
	}
}
