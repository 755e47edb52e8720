package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/observability"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares. The request logger is
// outermost so it sees the status written by the error middleware.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if isRoutingError(err) {
					observability.MarkUnmatched(c)
				}
				metrics.RecordError(observability.RouteKey(c), c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also covers the framework's own errors such as unknown
// routes and disallowed methods.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := strings.ToUpper(strings.ReplaceAll(statusText(fiberErr.Code), " ", "_"))
		return apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

// isRoutingError reports whether the router itself rejected the request.
// Handlers return DomainErrors, so a bare 404 or 405 fiber.Error means no
// route served it.
func isRoutingError(err error) bool {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return false
	}
	return fiberErr.Code == fiber.StatusNotFound || fiberErr.Code == fiber.StatusMethodNotAllowed
}

func statusText(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "not found"
	case fiber.StatusMethodNotAllowed:
		return "method not allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "payload too large"
	case fiber.StatusUnsupportedMediaType, fiber.StatusUnprocessableEntity:
		return "invalid payload"
	default:
		if code >= 500 {
			return "internal error"
		}
		return "request failed"
	}
}
