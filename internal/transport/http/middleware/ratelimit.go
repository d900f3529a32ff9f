package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"boutika/internal/transport/http/api"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows rpm requests per minute per client, keyed by the
// authenticated actor when present and client IP otherwise.
type RateLimit struct {
	rpm     int
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func NewRateLimit(rpm int) *RateLimit {
	if rpm <= 0 {
		rpm = 120
	}
	return &RateLimit{rpm: rpm, clients: map[string]*clientLimiter{}}
}

func (m *RateLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.get(clientKey(r)).limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimit) get(key string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.clients[key]; ok {
		existing.lastSeen = time.Now()
		return existing
	}
	created := &clientLimiter{
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.rpm)), m.rpm),
		lastSeen: time.Now(),
	}
	m.clients[key] = created
	m.gcLocked()
	return created
}

func (m *RateLimit) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}
	cutoff := time.Now().Add(-10 * time.Minute)
	for key, client := range m.clients {
		if client.lastSeen.Before(cutoff) {
			delete(m.clients, key)
		}
	}
}

func clientKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.WorkspaceID + ":" + user.UserID
	}
	return "ip:" + ClientIP(r)
}

func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if value := strings.TrimSpace(parts[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
