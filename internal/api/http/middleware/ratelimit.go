package middleware

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/classfolio/classfolio-server/internal/ratelimit"
)

// Consumer spends one rate-limit point for a key.
type Consumer interface {
	Consume(key string) error
}

// RateLimit gates requests through a points-per-window limiter keyed by
// client address.
type RateLimit struct {
	limiter Consumer
}

// NewRateLimit creates a new RateLimit middleware instance.
func NewRateLimit(limiter Consumer) *RateLimit {
	return &RateLimit{limiter: limiter}
}

type rateLimitedResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// Handler consumes one point per request and answers 429 with a
// Retry-After header once the client's quota is spent.
func (m *RateLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := m.limiter.Consume(clientAddress(r))
		if err != nil {
			secs := 1
			var rlErr *ratelimit.Error
			if errors.As(err, &rlErr) {
				secs = rlErr.RetryAfterSeconds()
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rateLimitedResponse{
				Success:    false,
				Message:    "Too many requests",
				RetryAfter: secs,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientAddress extracts the client key: the first forwarded address when
// present, otherwise the connection's remote host.
func clientAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if addr := strings.TrimSpace(parts[0]); addr != "" {
			return addr
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
