package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/pkg/logging"
	"storefront/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Observability extracts the W3C trace context, stores a request-scoped logger in the
// user context and records HTTP metrics with the route template as label. It expects
// the requestid middleware to run first.
func Observability(base *zap.Logger, m *metrics.Metrics) fiber.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	prop := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	return func(c *fiber.Ctx) error {
		ctx := prop.Extract(c.UserContext(), propagation.HeaderCarrier(http.Header(c.GetReqHeaders())))
		sc := trace.SpanContextFromContext(ctx)

		fields := []zap.Field{zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID))}
		if sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
		c.SetUserContext(logging.WithContext(ctx, base.With(fields...)))

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		m.ObserveHTTP(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start).Seconds())
		return err
	}
}

// Timeout bounds the user context of every request, and with it every store call.
func Timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
