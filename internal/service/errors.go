package service

import (
	"context"
	"errors"

	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/pkg/code"
	apperrors "github.com/haierkeys/wicky/pkg/errors"
	"github.com/haierkeys/wicky/pkg/merge"
	"github.com/haierkeys/wicky/pkg/writequeue"

	"gorm.io/gorm"
)

var (
	// ErrHistoryCorrupted a stored patch no longer applies, the history itself is broken
	// ErrHistoryCorrupted 已存储的补丁无法应用，历史本身已损坏
	ErrHistoryCorrupted = errors.New("patch history corrupted")
	// ErrHistoryIndexOutOfRange 历史序号超出范围
	ErrHistoryIndexOutOfRange = errors.New("history index out of range")
)

// toCode maps core and storage errors to response codes
// toCode 将核心与存储错误映射为响应码
func toCode(err error) error {
	if err == nil {
		return nil
	}

	var c *code.Code
	if errors.As(err, &c) {
		return c
	}

	switch {
	case errors.Is(err, domain.ErrUnknownOwnerKind),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidOwnerID):
		return code.ErrorFieldUnknown.WithDetails(err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		return code.ErrorFieldStale
	case errors.Is(err, writequeue.ErrWriteQueueFull),
		errors.Is(err, writequeue.ErrWriteTimeout),
		errors.Is(err, writequeue.ErrWriteQueueClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return code.ErrorFieldBusy.WithDetails(err.Error())
	case errors.Is(err, ErrHistoryIndexOutOfRange):
		return code.ErrorHistoryIndex.WithDetails(err.Error())
	case errors.Is(err, ErrHistoryCorrupted):
		return code.ErrorHistoryCorrupt.WithDetails(err.Error())
	case errors.Is(err, merge.ErrMergeFailed),
		errors.Is(err, merge.ErrInvalidPatch):
		return apperrors.Wrap(code.ErrorMergeFailed, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return code.ErrorPatchNotFound
	}

	var conflicted *merge.ConflictedError
	if errors.As(err, &conflicted) {
		return code.ErrorPatchConflict.WithDetails(conflicted.Rejects)
	}

	return apperrors.Wrap(code.ErrorDBQuery, err)
}
