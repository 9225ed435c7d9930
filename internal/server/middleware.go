package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dexgate-labs/dexgate/internal/metrics"
)

// rateLimiter is a per-IP token bucket. Browsing endpoints are cheap but
// the quote path fans out to upstreams, so the bucket is shared across
// all routes.
type rateLimiter struct {
	mu       sync.Mutex
	rate     int
	burst    int
	tokens   map[string]int
	lastSeen map[string]time.Time
}

func newRateLimiter(rate, burst int) *rateLimiter {
	return &rateLimiter{
		rate:     rate,
		burst:    burst,
		tokens:   make(map[string]int),
		lastSeen: make(map[string]time.Time),
	}
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		now := time.Now()
		if _, exists := rl.tokens[ip]; !exists {
			rl.tokens[ip] = rl.burst
			rl.lastSeen[ip] = now
		}

		elapsed := now.Sub(rl.lastSeen[ip])
		rl.lastSeen[ip] = now

		rl.tokens[ip] += int(elapsed.Seconds()) * rl.rate
		if rl.tokens[ip] > rl.burst {
			rl.tokens[ip] = rl.burst
		}

		if rl.tokens[ip] <= 0 {
			rl.mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response{Success: false, Error: "rate limit exceeded"})
			return
		}
		rl.tokens[ip]--
		rl.mu.Unlock()

		c.Next()
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.
			WithLabelValues(route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
