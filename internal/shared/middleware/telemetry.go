package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Telemetry wraps an http.Handler with OpenTelemetry instrumentation:
// a trace span per request plus duration and size metrics.
func Telemetry(next http.Handler) http.Handler {
	return otelhttp.NewMiddleware("centavo-api")(next)
}
