package api_router

import (
	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/internal/dto"
	pkgapp "github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"
	apperrors "github.com/haierkeys/wicky/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FieldHandler 字段读取、合并更新与历史 API 路由处理器
type FieldHandler struct {
	*Handler
}

// NewFieldHandler 创建 FieldHandler 实例
func NewFieldHandler(a *app.App) *FieldHandler {
	return &FieldHandler{Handler: NewHandler(a)}
}

// Get 获取字段当前值
// @Summary 获取字段当前值
// @Tags 字段
// @Produce json
// @Param params query dto.FieldRefRequest true "字段定位"
// @Success 200 {object} pkgapp.Res{data=dto.FieldDTO} "成功"
// @Router /api/field [get]
func (h *FieldHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.FieldRefRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("FieldHandler.Get.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	field, err := h.App.FieldService.Get(ctx, params)
	if err != nil {
		h.logError(ctx, "FieldHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(field))
}

// Update 提交客户端修改，与服务端当前值三方合并
// 有冲突时返回 isConflicted=true 以及带冲突标记的文本，字段保持不变
// @Summary 提交字段修改
// @Tags 字段
// @Accept json
// @Produce json
// @Param params body dto.FieldUpdateRequest true "修改内容"
// @Success 200 {object} pkgapp.Res{data=dto.FieldUpdateResult} "成功"
// @Router /api/field/update [post]
func (h *FieldHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.FieldUpdateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("FieldHandler.Update.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	done := h.App.TrackOperation()
	defer done()

	res, err := h.App.FieldService.Update(ctx, params)
	if err != nil {
		h.logError(ctx, "FieldHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(res))
}

// Restore 恢复字段到历史版本，记录为一次新的修改
// @Summary 恢复字段历史版本
// @Tags 字段
// @Accept json
// @Produce json
// @Param params body dto.FieldRestoreRequest true "恢复参数"
// @Success 200 {object} pkgapp.Res{data=dto.FieldUpdateResult} "成功"
// @Router /api/field/restore [post]
func (h *FieldHandler) Restore(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.FieldRestoreRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("FieldHandler.Restore.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	done := h.App.TrackOperation()
	defer done()

	res, err := h.App.FieldService.Restore(ctx, params)
	if err != nil {
		h.logError(ctx, "FieldHandler.Restore", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(res))
}

// History 获取字段在某个历史序号的值，index=0 为初始空值
// @Summary 获取字段历史值
// @Tags 字段
// @Produce json
// @Param params query dto.FieldHistoryRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=dto.FieldHistoryDTO} "成功"
// @Router /api/field/history [get]
func (h *FieldHandler) History(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.FieldHistoryRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("FieldHandler.History.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	res, err := h.App.HistoryService.Value(ctx, params)
	if err != nil {
		h.logError(ctx, "FieldHandler.History", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(res))
}

// Verify 回放字段的全部补丁并与存储值比较
// @Summary 校验字段历史
// @Tags 字段
// @Produce json
// @Param params query dto.FieldRefRequest true "字段定位"
// @Success 200 {object} pkgapp.Res{data=dto.FieldVerifyDTO} "成功"
// @Router /api/field/verify [get]
func (h *FieldHandler) Verify(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.FieldRefRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("FieldHandler.Verify.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ref, err := domain.NewFieldRef(params.OwnerKind, params.OwnerID, params.Field)
	if err != nil {
		response.ToResponse(code.ErrorFieldUnknown.WithDetails(err.Error()))
		return
	}

	ctx := c.Request.Context()
	res, err := h.App.HistoryService.Verify(ctx, ref)
	if err != nil {
		h.logError(ctx, "FieldHandler.Verify", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(res))
}
