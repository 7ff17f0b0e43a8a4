// Package throttle provides an HTTP middleware which paces requests through
// a token bucket.  The raw register surface can issue arbitrary bus traffic;
// pacing it keeps a curious client from starving the sequences that matter.
package throttle

import (
	"net/http"

	"golang.org/x/time/rate"
)

// New returns a middleware allowing sustained rps requests per second with
// the given burst.  Requests over budget get 429 rather than queueing: the
// bus is a real-time resource and stale register pokes are worse than
// refused ones.
func New(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	lim := rate.NewLimiter(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				http.Error(w, "register access rate exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
