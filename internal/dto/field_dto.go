// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"github.com/haierkeys/wicky/pkg/timex"
)

// FieldRefRequest Locates one merge-tracked field
// FieldRefRequest 定位一个字段
type FieldRefRequest struct {
	OwnerKind string `json:"ownerKind" form:"ownerKind" binding:"required,owner_kind"`
	OwnerID   int64  `json:"ownerId" form:"ownerId" binding:"required,gt=0"`
	Field     string `json:"field" form:"field"` // 为空时取记录类型的默认字段
}

// FieldUpdateRequest Client submission of an edited field
// FieldUpdateRequest 客户端提交的字段修改
type FieldUpdateRequest struct {
	OwnerKind string `json:"ownerKind" form:"ownerKind" binding:"required,owner_kind"`
	OwnerID   int64  `json:"ownerId" form:"ownerId" binding:"required,gt=0"`
	Field     string `json:"field" form:"field"`
	// Baseline 客户端开始编辑时读到的值
	Baseline string `json:"baseline" form:"baseline"`
	// Value 客户端编辑后的值
	Value string `json:"value" form:"value"`
}

// FieldRestoreRequest Restore a field to an earlier history index
// FieldRestoreRequest 恢复字段到历史版本
type FieldRestoreRequest struct {
	OwnerKind string `json:"ownerKind" form:"ownerKind" binding:"required,owner_kind"`
	OwnerID   int64  `json:"ownerId" form:"ownerId" binding:"required,gt=0"`
	Field     string `json:"field" form:"field"`
	Index     int64  `json:"index" form:"index" binding:"gte=0"`
}

// FieldHistoryRequest Read a field value at a history index
// FieldHistoryRequest 查询字段历史值
type FieldHistoryRequest struct {
	OwnerKind string `json:"ownerKind" form:"ownerKind" binding:"required,owner_kind"`
	OwnerID   int64  `json:"ownerId" form:"ownerId" binding:"required,gt=0"`
	Field     string `json:"field" form:"field"`
	Index     int64  `json:"index" form:"index" binding:"gte=0"`
}

// FieldDTO Current value of a field
// FieldDTO 字段当前值
type FieldDTO struct {
	OwnerKind string     `json:"ownerKind"`
	OwnerID   int64      `json:"ownerId"`
	Field     string     `json:"field"`
	Value     string     `json:"value"`
	Version   int64      `json:"version"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

// FieldUpdateResult Outcome of one update attempt
// FieldUpdateResult 一次更新尝试的结果
// IsConflicted 为 true 时 Value 是带冲突标记的文本，字段未被修改
type FieldUpdateResult struct {
	IsConflicted bool      `json:"isConflicted"`
	Value        string    `json:"value"`
	Version      int64     `json:"version"`
	Patch        *PatchDTO `json:"patch,omitempty"`
}

// FieldHistoryDTO Value of a field at a history index
// FieldHistoryDTO 字段在某个历史版本的值
type FieldHistoryDTO struct {
	OwnerKind string `json:"ownerKind"`
	OwnerID   int64  `json:"ownerId"`
	Field     string `json:"field"`
	Index     int64  `json:"index"`
	Total     int64  `json:"total"`
	Value     string `json:"value"`
}

// FieldVerifyDTO Result of replaying the whole history
// FieldVerifyDTO 历史校验结果
type FieldVerifyDTO struct {
	OwnerKind string `json:"ownerKind"`
	OwnerID   int64  `json:"ownerId"`
	Field     string `json:"field"`
	Patches   int64  `json:"patches"`
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
}
