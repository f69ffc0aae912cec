package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/handlers"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recoveredPanicsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "api_recovered_panics_total",
		Help: "Total number of handler panics turned into 500 responses, by route",
	},
	[]string{"route"},
)

// PanicRecovery turns a handler panic into a SYSTEM_001 response. A panic
// inside a mutation rolls back its database transaction before reaching here,
// so the balance is never left half-applied.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				route := c.Path()
				recoveredPanicsTotal.WithLabelValues(route).Inc()

				attrs := []any{
					"trace_id", GetTraceID(c),
					"panic", fmt.Sprintf("%v", r),
					"stack_trace", string(debug.Stack()),
					"method", c.Request().Method,
					"route", route,
				}
				if userID, ok := c.Get(handlers.UserIDContextKey).(uuid.UUID); ok {
					attrs = append(attrs, "user_id", userID)
				}
				slog.Default().ErrorContext(c.Request().Context(), "panic recovered", attrs...)

				// headers are gone once the handler has started streaming
				if c.Response().Committed {
					err = nil
					return
				}
				err = handlers.SendError(c, errors.SystemInternalError)
			}()

			return next(c)
		}
	}
}
