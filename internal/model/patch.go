package model

import "github.com/haierkeys/wicky/pkg/timex"

// Patch 字段补丁历史表
// (owner_kind, owner_id, field, seq) 唯一，保证同一字段历史无重复序号
type Patch struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	UUID      string     `gorm:"column:uuid;size:36;not null;uniqueIndex:idx_patch_uuid" json:"uuid" form:"uuid"`
	OwnerKind string     `gorm:"column:owner_kind;size:32;not null;uniqueIndex:idx_patch_owner_seq,priority:1" json:"ownerKind" form:"ownerKind"`
	OwnerID   int64      `gorm:"column:owner_id;not null;uniqueIndex:idx_patch_owner_seq,priority:2" json:"ownerId" form:"ownerId"`
	Field     string     `gorm:"column:field;size:64;not null;uniqueIndex:idx_patch_owner_seq,priority:3" json:"field" form:"field"`
	Seq       int64      `gorm:"column:seq;not null;uniqueIndex:idx_patch_owner_seq,priority:4" json:"seq" form:"seq"`
	Content   string     `gorm:"column:content;size:16777215" json:"content" form:"content"`
	CreatedAt timex.Time `gorm:"column:created_at" json:"createdAt" form:"createdAt"`
}
