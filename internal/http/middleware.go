package http

import (
	"net"
	"net/http"

	rl "github.com/rogerio-castellano/stock-ledger/internal/http/rate_limiter"
)

// RateLimitMiddleware throttles clients by remote IP on the mutation routes.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !rl.GetVisitor(ip).Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
