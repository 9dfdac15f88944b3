package api_router

import (
	"time"

	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/internal/dto"
	pkgapp "github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接与 diff/patch/diff3 是否可用
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthDTO}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	res := dto.HealthDTO{
		Status:   "healthy",
		Version:  h.App.Version().Version,
		Uptime:   time.Since(h.App.StartTime).Seconds(),
		Database: "connected",
		Tools:    "available",
	}

	if err := h.App.Dao.Ping(c.Request.Context()); err != nil {
		h.logError(c.Request.Context(), "HealthHandler.Check.Ping", err)
		res.Status = "unhealthy"
		res.Database = "error"
	}
	if missing := h.App.Tools.Available(); len(missing) > 0 {
		res.Status = "unhealthy"
		res.Tools = "missing"
		res.Missing = missing
	}

	if res.Status != "healthy" {
		response.ToResponse(code.ErrorServerInternal.WithData(res))
		return
	}
	response.ToResponse(code.Success.WithData(res))
}
