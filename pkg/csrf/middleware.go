package csrf

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// Middleware rejects requests that fail Check using the configured
// ErrorHandler.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Check(r); err != nil {
			g.errorHandler(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// DefaultErrorHandler answers 429 with a Retry-After header for locked out
// clients and 403 for token failures, both with a JSON body.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	body := errorResponse{
		Error:   "csrf_invalid",
		Message: Message(err),
	}
	status := http.StatusForbidden

	var rl *RateLimitedError
	if errors.As(err, &rl) {
		secs := rl.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		body.Error = "csrf_rate_limited"
		body.RetryAfter = secs
		status = http.StatusTooManyRequests
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
