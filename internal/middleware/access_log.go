package middleware

import (
	"time"

	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"
	"github.com/haierkeys/wicky/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AccessLogWithLogger logs one line per request with the business code of the reply.
// Server side failures are logged at warn level.
func AccessLogWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := zapcore.InfoLevel
		respCode := c.GetInt(app.KeyResponseCode)
		if respCode >= code.ErrorServerInternal.Code() || c.Writer.Status() >= 500 {
			level = zapcore.WarnLevel
		}

		if ce := lg.Check(level, c.FullPath()); ce != nil {
			ce.Write(
				zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
				zap.String("method", c.Request.Method),
				zap.String("url", c.Request.URL.RequestURI()),
				zap.Int("status", c.Writer.Status()),
				zap.Int("code", respCode),
				zap.Duration(logger.FieldDuration, time.Since(start)),
				zap.String("ip", c.GetString(KeyClientIP)),
				zap.String("user-agent", c.Request.UserAgent()),
				zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
			)
		}
	}
}
