package api

import (
	"net"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the number of per-address limiters kept.
const maxTrackedClients = 4096

// clientLimiter hands out a token bucket per client address.
type clientLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	every    rate.Limit
	burst    int
}

func newClientLimiter(perMinute int) *clientLimiter {
	cache, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		panic(err)
	}
	return &clientLimiter{
		limiters: cache,
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (c *clientLimiter) allow(addr string) bool {
	lim, ok := c.limiters.Get(addr)
	if !ok {
		lim = rate.NewLimiter(c.every, c.burst)
		if prev, found, _ := c.limiters.PeekOrAdd(addr, lim); found {
			lim = prev
		}
	}
	return lim.Allow()
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit returns middleware allowing perMinute requests per client
// address, with bursts of the same size. Zero disables limiting.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := newClientLimiter(perMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientAddr(r)) {
				w.Header().Set("Retry-After", "60")
				jsonError(w, http.StatusTooManyRequests, "too many attempts, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
