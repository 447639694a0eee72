package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter throttles sensitive endpoints per client key.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest consults the limiter with a key scoped to the endpoint so a
// burst of login attempts does not starve refreshes from the same address.
// A nil limiter allows everything.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(scope + ":" + clientIP(r))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
