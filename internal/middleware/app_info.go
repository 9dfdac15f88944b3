package middleware

import (
	"github.com/haierkeys/wicky/pkg/app"

	"github.com/gin-gonic/gin"
)

// gin.Context keys set by AppInfoWithConfig
const (
	KeyAppName    = "app_name"
	KeyAppVersion = "app_version"
	KeyClientIP   = "client_ip"
)

// AppInfoWithConfig 把应用名称、版本与客户端 IP 写入请求上下文，并通过 Server 响应头返回版本
func AppInfoWithConfig(name, version string) gin.HandlerFunc {
	server := name + "/" + version

	return func(c *gin.Context) {
		c.Set(KeyAppName, name)
		c.Set(KeyAppVersion, version)
		c.Set(KeyClientIP, app.GetRequestIP(c))
		c.Header("Server", server)

		c.Next()
	}
}
