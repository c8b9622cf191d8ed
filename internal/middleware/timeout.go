package middleware

import (
	"net/http"
	"time"
)

const timeoutBody = `{"error":{"message":"request timed out","status":503,"code":"REQUEST_TIMEOUT"}}`

// Timeout bounds handler time. http.TimeoutHandler answers 503 once the
// deadline passes and cancels the request context so pgx aborts the query.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
