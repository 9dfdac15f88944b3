package domain

import "time"

// Patch 字段的一次已接受修改，Content 为 unified diff
// Seq 从 1 开始，同一字段内连续递增
type Patch struct {
	ID        int64
	UUID      string
	OwnerKind OwnerKind
	OwnerID   int64
	Field     string
	Seq       int64
	Content   string
	CreatedAt time.Time
}

// Ref 返回补丁所属字段
func (p *Patch) Ref() FieldRef {
	return FieldRef{Owner: Owner{Kind: p.OwnerKind, ID: p.OwnerID}, Field: p.Field}
}
