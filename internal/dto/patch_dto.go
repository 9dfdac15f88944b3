package dto

import (
	"github.com/haierkeys/wicky/pkg/timex"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// PatchListRequest Paged patch list of a field
// PatchListRequest 字段补丁分页列表请求
type PatchListRequest struct {
	OwnerKind string `json:"ownerKind" form:"ownerKind" binding:"required,owner_kind"`
	OwnerID   int64  `json:"ownerId" form:"ownerId" binding:"required,gt=0"`
	Field     string `json:"field" form:"field"`
}

// PatchGetRequest Single patch lookup, by row id or uuid
// PatchGetRequest 查询单个补丁，id 与 uuid 二选一
type PatchGetRequest struct {
	ID   int64  `json:"id" form:"id" binding:"omitempty,gt=0"`
	UUID string `json:"uuid" form:"uuid" binding:"omitempty,uuid"`
}

// PatchDTO One accepted change
// PatchDTO 一次已接受的修改
type PatchDTO struct {
	ID        int64      `json:"id"`
	UUID      string     `json:"uuid"`
	OwnerKind string     `json:"ownerKind"`
	OwnerID   int64      `json:"ownerId"`
	Field     string     `json:"field"`
	Seq       int64      `json:"seq"`
	Content   string     `json:"content,omitempty"`
	Hunks     int        `json:"hunks"`
	Added     int        `json:"added"`
	Deleted   int        `json:"deleted"`
	CreatedAt timex.Time `json:"createdAt"`
}

// PatchDetailDTO Patch with the values around it and a character level diff for display
// PatchDetailDTO 补丁详情，包含前后值与字符级差异
type PatchDetailDTO struct {
	PatchDTO
	Before string                `json:"before"`
	After  string                `json:"after"`
	Diffs  []diffmatchpatch.Diff `json:"diffs"`
}
