package middleware

import (
	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"
	"github.com/haierkeys/wicky/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter takes one token per request from the bucket matching the route.
// Routes without a bucket are not limited.
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		if bucket, ok := l.GetBucket(l.Key(c)); ok && bucket.TakeAvailable(1) == 0 {
			c.Header("Retry-After", "1")
			app.NewResponse(c).ToResponse(code.ErrorTooManyRequest)
			c.Abort()
			return
		}

		c.Next()
	}
}
