package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// LoginRateLimiter throttles credential submissions per client IP. Counters
// expire on their own, so a locked-out IP recovers after the window passes.
type LoginRateLimiter struct {
	attempts *gocache.Cache
	max      int
	logger   *zap.Logger
}

func NewLoginRateLimiter(logger *zap.Logger, max int, window time.Duration) *LoginRateLimiter {
	return &LoginRateLimiter{
		attempts: gocache.New(window, 2*window),
		max:      max,
		logger:   logger,
	}
}

// Allow records one attempt for ip and reports whether it is still within
// the window's budget.
func (l *LoginRateLimiter) Allow(ip string) bool {
	count, err := l.attempts.IncrementInt(ip, 1)
	if err != nil {
		// first attempt in this window
		l.attempts.SetDefault(ip, 1)
		return true
	}
	return count <= l.max
}

// Middleware rejects over-budget login attempts before any backend call.
func (l *LoginRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			l.logger.Warn("Login rate limit exceeded", zap.String("ip", ip))
			c.String(http.StatusTooManyRequests,
				fmt.Sprintf("Too many login attempts. Try again later (limit %d per window).", l.max))
			c.Abort()
			return
		}
		c.Next()
	}
}
