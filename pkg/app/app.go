// Package app holds the HTTP envelope shared by every handler: response writing,
// request binding and pagination.
package app

import (
	"strings"

	"github.com/haierkeys/wicky/pkg/code"

	"github.com/gin-gonic/gin"
)

// gin.Context keys written by the middlewares and read back here
// 中间件写入、响应时读取的 gin.Context 键
const (
	KeyLang         = "lang"
	KeyTranslator   = "trans"
	KeyTraceID      = "trace_id"
	KeyResponseCode = "response_code"
)

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

type ListRes struct {
	List  interface{} `json:"list"`
	Pager Pager       `json:"pager"`
}

// Res is the envelope of every reply. The HTTP status is always 200, Code carries the outcome.
// Res 统一响应结构，HTTP 状态码恒为 200，结果由 Code 表达
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Context interface{} `json:"context,omitempty"`
	TraceID string      `json:"traceId,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// GetRequestIP 获取ip，本机 IPv6 回环地址按 127.0.0.1 处理
func GetRequestIP(c *gin.Context) string {
	reqIP := c.ClientIP()
	if reqIP == "::1" {
		reqIP = "127.0.0.1"
	}
	return reqIP
}

// Lang 返回请求语言，未设置时为默认语言
func Lang(c *gin.Context) string {
	if l := c.GetString(KeyLang); l != "" {
		return l
	}
	return code.DefaultLang
}

// ToResponse writes codeObj in the request's language.
func (r *Response) ToResponse(codeObj *code.Code) {
	content := r.envelope(codeObj)
	content.Data = codeObj.Data()

	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}
	if codeObj.HaveContext() {
		content.Context = codeObj.Context()
	}

	r.send(codeObj.StatusCode(), content)
}

// ToResponseList 输出列表响应，Data 为 ListRes
func (r *Response) ToResponseList(codeObj *code.Code, list interface{}, pager *Pager, totalRows int) {
	content := r.envelope(codeObj)
	p := *pager
	p.TotalRows = totalRows
	content.Data = ListRes{List: list, Pager: p}

	r.send(codeObj.StatusCode(), content)
}

func (r *Response) envelope(codeObj *code.Code) Res {
	r.Ctx.Set(KeyResponseCode, codeObj.Code())
	return Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.MsgIn(Lang(r.Ctx)),
		TraceID: r.Ctx.GetString(KeyTraceID),
	}
}

func (r *Response) send(statusCode int, content interface{}) {
	r.Ctx.JSON(statusCode, content)
}
