// Package errors carries reply codes through the error chain and writes them back to clients.
package errors

import (
	"errors"

	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"

	"github.com/gin-gonic/gin"
)

// AppError pairs a reply code with the error that produced it.
// errors.Is and errors.As see both the code and the cause.
// AppError 错误码与原始错误
type AppError struct {
	Code  *code.Code
	Cause error
}

// Wrap attaches c to cause. A nil cause gives c alone.
func Wrap(c *code.Code, cause error) error {
	if cause == nil {
		return c
	}
	return &AppError{Code: c, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code.Error()
	}
	return e.Code.Error() + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Cause}
}

// CodeOf returns the reply code in err's chain, ErrorServerInternal when there is none.
// CodeOf 取出错误链中的错误码
func CodeOf(err error) *code.Code {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != nil {
		return appErr.Code
	}
	var c *code.Code
	if errors.As(err, &c) {
		return c
	}
	return code.ErrorServerInternal
}

// ErrorResponse writes err in the standard envelope, in the request's language and with its trace id.
// ErrorResponse 统一错误响应
func ErrorResponse(c *gin.Context, err error) {
	app.NewResponse(c).ToResponse(CodeOf(err))
}
