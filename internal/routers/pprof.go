package routers

import (
	"net/http/pprof"

	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/internal/middleware"
	"github.com/haierkeys/wicky/internal/routers/api_router"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultPrefix url prefix of pprof
	DefaultPrefix = "/debug/pprof"
)

// NewPrivateRouter 创建私有路由：指标、系统信息与调试 pprof
func NewPrivateRouter(runMode string, appContainer *app.App) *gin.Engine {

	r := gin.New()

	if runMode == "debug" {
		r.Use(gin.Recovery())
	} else {
		r.Use(middleware.RecoveryWithLogger(appContainer.Logger()))
	}

	// 指标
	r.GET("/debug/vars", api_router.ExpvarHandler(appContainer))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/system", api_router.NewSystemHandler(appContainer).Info)

	if runMode == "debug" {
		p := r.Group(DefaultPrefix)
		p.GET("/", gin.WrapF(pprof.Index))
		p.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		p.GET("/profile", gin.WrapF(pprof.Profile))
		p.Any("/symbol", gin.WrapF(pprof.Symbol))
		p.GET("/trace", gin.WrapF(pprof.Trace))
		for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			p.GET("/"+name, gin.WrapH(pprof.Handler(name)))
		}
	}

	return r
}
