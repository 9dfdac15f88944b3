package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"
	"github.com/haierkeys/wicky/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 创建带日志器的 Recovery 中间件（支持依赖注入）
func RecoveryWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			var errorMsg string
			fields := []zap.Field{
				zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
				zap.Int("status", c.Writer.Status()),
				zap.String("router", path),
				zap.String("method", c.Request.Method),
				zap.String("query", query),
				zap.String("ip", c.ClientIP()),
				zap.String("user-agent", c.Request.UserAgent()),
				zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
			}

			switch v := r.(type) {
			case string:
				errorMsg = v
				fields = append(fields, zap.String("panic_value", v))
			case error:
				errorMsg = v.Error()
				fields = append(fields, zap.Error(v))
			default:
				// 非错误类型的 panic 不向客户端暴露内容
				fields = append(fields, zap.String("panic_value", fmt.Sprintf("%v", v)))
			}
			fields = append(fields, zap.String("stack", string(debug.Stack())))
			lg.Error("Recovered from panic", fields...)

			// 返回统一的错误响应
			res := code.ErrorServerInternal
			if errorMsg != "" {
				res = res.WithDetails(errorMsg)
			}
			app.NewResponse(c).ToResponse(res)
			c.Abort()
		}()

		c.Next()
	}
}
