package routers

import (
	"time"

	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/internal/middleware"
	"github.com/haierkeys/wicky/internal/routers/api_router"
	"github.com/haierkeys/wicky/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// newMethodLimiters 字段接口与整体 API 的令牌桶，rate<=0 时不限流
func newMethodLimiters(rate int64) limiter.Face {
	l := limiter.NewMethodLimiter()
	if rate <= 0 {
		return l
	}
	return l.AddBuckets(
		limiter.BucketRule{
			Key:          "/api/field",
			FillInterval: time.Second,
			Capacity:     rate,
			Quantum:      rate,
		},
		limiter.BucketRule{
			Key:          "/api",
			FillInterval: time.Second,
			Capacity:     rate * 4,
			Quantum:      rate * 4,
		},
	)
}

// NewRouter 创建对外 API 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	cfg := appContainer.Config()

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(newMethodLimiters(cfg.App.RateLimit)))
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		fieldHandler := api_router.NewFieldHandler(appContainer)
		patchHandler := api_router.NewPatchHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)

		api.GET("/field", fieldHandler.Get)
		api.POST("/field/update", fieldHandler.Update)
		api.POST("/field/restore", fieldHandler.Restore)
		api.GET("/field/history", fieldHandler.History)
		api.GET("/field/verify", fieldHandler.Verify)
		api.GET("/field/patches", patchHandler.List)
		api.GET("/field/patch", patchHandler.Get)
	}

	r.NoRoute(middleware.NoFound())

	return r
}
