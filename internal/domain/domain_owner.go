// Package domain 定义领域模型和接口
package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// OwnerKind 拥有历史字段的记录类型
type OwnerKind string

const (
	OwnerProject  OwnerKind = "project"
	OwnerSchedule OwnerKind = "schedule"
)

// ownerFields 每种记录类型可合并编辑的字段
var ownerFields = map[OwnerKind][]string{
	OwnerProject:  {"summary"},
	OwnerSchedule: {"description"},
}

var (
	// ErrUnknownOwnerKind 未知的记录类型
	ErrUnknownOwnerKind = errors.New("unknown owner kind")
	// ErrUnknownField 记录类型不包含该字段
	ErrUnknownField = errors.New("unknown field for owner kind")
	// ErrInvalidOwnerID 记录 ID 非法
	ErrInvalidOwnerID = errors.New("invalid owner id")
)

// OwnerKinds 返回所有记录类型
func OwnerKinds() []OwnerKind {
	return []OwnerKind{OwnerProject, OwnerSchedule}
}

// Fields 返回记录类型的可编辑字段
func (k OwnerKind) Fields() []string {
	return ownerFields[k]
}

// DefaultField 返回记录类型的第一个字段
func (k OwnerKind) DefaultField() string {
	if f := ownerFields[k]; len(f) > 0 {
		return f[0]
	}
	return ""
}

// Owner 多态的历史归属记录：类型 + ID
type Owner struct {
	Kind OwnerKind
	ID   int64
}

// FieldRef 定位一个字段的历史：记录 + 字段名
type FieldRef struct {
	Owner
	Field string
}

// NewFieldRef 构造 FieldRef，field 为空时取记录类型的默认字段
func NewFieldRef(kind string, id int64, field string) (FieldRef, error) {
	ref := FieldRef{Owner: Owner{Kind: OwnerKind(kind), ID: id}, Field: field}
	if ref.Field == "" {
		ref.Field = ref.Kind.DefaultField()
	}
	return ref, ref.Validate()
}

// Validate 校验记录类型、ID 与字段
func (r FieldRef) Validate() error {
	fields, ok := ownerFields[r.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOwnerKind, r.Kind)
	}
	if r.ID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOwnerID, r.ID)
	}
	for _, f := range fields {
		if f == r.Field {
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.Kind, r.Field)
}

// Key 写队列与缓存使用的键 kind:id:field
func (r FieldRef) Key() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ID, 10) + ":" + r.Field
}

func (r FieldRef) String() string {
	return r.Key()
}
