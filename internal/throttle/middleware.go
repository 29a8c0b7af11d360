package throttle

import (
	"fmt"
	"net"
	"net/http"

	"github.com/quillpad/identity/internal/api"
)

// Middleware rejects requests from blocked client keys before the wrapped
// handler runs. It never records attempts itself; the handlers decide what
// counts as a failure.
type Middleware struct {
	throttle *Throttle
}

func NewMiddleware(t *Throttle) *Middleware {
	return &Middleware{throttle: t}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientKey(r)

		decision, err := m.throttle.Check(r.Context(), key)
		if err != nil {
			// Fail open on store errors; Check already logged the cause.
			next.ServeHTTP(w, r)
			return
		}

		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			api.WriteError(w, http.StatusTooManyRequests,
				"Too Many Requests", "Too many attempts, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Counting behaves like Handler but also records every request as an
// attempt. Used where the request itself is the guarded action (account
// creation, reset-link requests) rather than a credential check.
func (m *Middleware) Counting(next http.Handler) http.Handler {
	record := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.throttle.RecordFailure(r.Context(), ClientKey(r))
		next.ServeHTTP(w, r)
	})
	return m.Handler(record)
}

// ClientKey derives the throttle key for a request: the client IP, taking
// proxy headers into account.
func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return "ip:" + forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return "ip:" + realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
