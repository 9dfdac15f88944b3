// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/internal/middleware"
	"github.com/haierkeys/wicky/pkg/code"
	apperrors "github.com/haierkeys/wicky/pkg/errors"
	"github.com/haierkeys/wicky/pkg/logger"

	"go.uber.org/zap"
)

// Handler is embedded by every API handler for access to the App container.
// Handler 基础 Handler，嵌入后获得 App Container
type Handler struct {
	App *app.App
}

func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// logError logs a failed call with its trace id.
// Caller mistakes such as a stale version or a bad index are expected and logged at info.
func (h *Handler) logError(ctx context.Context, method string, err error) {
	c := apperrors.CodeOf(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("code", c.Code()),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	}

	switch c.Code() {
	case code.ErrorDBQuery.Code(), code.ErrorServerInternal.Code(),
		code.ErrorMergeFailed.Code(), code.ErrorHistoryCorrupt.Code():
		h.App.Logger().Error(method, fields...)
	default:
		h.App.Logger().Info(method, fields...)
	}
}
