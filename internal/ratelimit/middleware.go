package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	infrajwt "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/jwt"
)

// Rate limit response headers.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Identity returns the caller key: the JWT subject when authenticated,
// otherwise the client IP.
func Identity(c *gin.Context) string {
	if sub := infrajwt.Subject(c); sub != "" {
		return "user:" + sub
	}
	return "ip:" + c.ClientIP()
}

// Middleware enforces rule on every request it guards.
func Middleware(l *Limiter, rule Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := l.Check(c.Request.Context(), Identity(c), rule)

		c.Header(HeaderLimit, strconv.Itoa(d.Limit))
		c.Header(HeaderRemaining, strconv.Itoa(d.Remaining))
		c.Header(HeaderReset, strconv.FormatInt(d.Reset, 10))

		if !d.Success {
			retryAfter := max(int(time.Until(d.ResetTime()).Seconds()), 1)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
