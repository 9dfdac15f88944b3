package model

import "github.com/haierkeys/wicky/pkg/timex"

// FieldValue 字段当前值表，Version 为已接受的补丁数
type FieldValue struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	OwnerKind string     `gorm:"column:owner_kind;size:32;not null;uniqueIndex:idx_field_owner,priority:1" json:"ownerKind" form:"ownerKind"`
	OwnerID   int64      `gorm:"column:owner_id;not null;uniqueIndex:idx_field_owner,priority:2" json:"ownerId" form:"ownerId"`
	Field     string     `gorm:"column:field;size:64;not null;uniqueIndex:idx_field_owner,priority:3" json:"field" form:"field"`
	Value     string     `gorm:"column:value;size:16777215" json:"value" form:"value"`
	Version   int64      `gorm:"column:version;not null;default:0" json:"version" form:"version"`
	CreatedAt timex.Time `gorm:"column:created_at" json:"createdAt" form:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at" json:"updatedAt" form:"updatedAt"`
}
