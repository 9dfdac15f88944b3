package domain

import (
	"errors"
	"time"
)

// ErrVersionConflict 保存时字段版本已变化
var ErrVersionConflict = errors.New("field version conflict")

// FieldValue 字段当前值
// Version 等于已接受补丁数，即最新补丁的 Seq
type FieldValue struct {
	ID        int64
	OwnerKind OwnerKind
	OwnerID   int64
	Field     string
	Value     string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref 返回字段定位
func (f *FieldValue) Ref() FieldRef {
	return FieldRef{Owner: Owner{Kind: f.OwnerKind, ID: f.OwnerID}, Field: f.Field}
}

// EmptyField 尚未写入过的字段，值为空串，版本为 0
func EmptyField(ref FieldRef) *FieldValue {
	return &FieldValue{
		OwnerKind: ref.Kind,
		OwnerID:   ref.ID,
		Field:     ref.Field,
	}
}
