package api_router

import (
	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/internal/dto"
	pkgapp "github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"
	apperrors "github.com/haierkeys/wicky/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PatchHandler 补丁历史 API 路由处理器
type PatchHandler struct {
	*Handler
}

// NewPatchHandler 创建 PatchHandler 实例
func NewPatchHandler(a *app.App) *PatchHandler {
	return &PatchHandler{Handler: NewHandler(a)}
}

// List 分页获取字段补丁，按序号倒序
// @Summary 获取补丁列表
// @Tags 补丁
// @Produce json
// @Param params query dto.PatchListRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=pkgapp.ListRes{list=[]dto.PatchDTO}} "成功"
// @Router /api/field/patches [get]
func (h *PatchHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.PatchListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("PatchHandler.List.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	pager := pkgapp.NewPager(c, h.App.Config().GetPaginationConfig())

	list, count, err := h.App.HistoryService.List(ctx, params, pager)
	if err != nil {
		h.logError(ctx, "PatchHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, pager, int(count))
}

// Get 获取单个补丁详情，包含前后值
// @Summary 获取补丁详情
// @Tags 补丁
// @Produce json
// @Param params query dto.PatchGetRequest true "id 或 uuid"
// @Success 200 {object} pkgapp.Res{data=dto.PatchDetailDTO} "成功"
// @Router /api/field/patch [get]
func (h *PatchHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.PatchGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("PatchHandler.Get.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	patch, err := h.App.HistoryService.GetPatch(ctx, params)
	if err != nil {
		h.logError(ctx, "PatchHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(patch))
}
