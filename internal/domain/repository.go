package domain

import "context"

// PatchRepository 补丁历史仓储接口
type PatchRepository interface {
	// Append 追加补丁，Seq 取当前最大值 + 1 并回写到 patch
	Append(ctx context.Context, patch *Patch) (*Patch, error)

	// GetByID 根据ID获取补丁
	GetByID(ctx context.Context, id int64) (*Patch, error)

	// GetByUUID 根据UUID获取补丁
	GetByUUID(ctx context.Context, uuid string) (*Patch, error)

	// ListByRef 分页获取字段补丁，最新的在前
	ListByRef(ctx context.Context, ref FieldRef, page, pageSize int) ([]*Patch, error)

	// ListAllByRef 获取字段全部补丁，按 Seq 升序
	ListAllByRef(ctx context.Context, ref FieldRef) ([]*Patch, error)

	// ListAfterSeq 获取 Seq 大于 seq 的补丁，按 Seq 降序（用于倒推历史值）
	ListAfterSeq(ctx context.Context, ref FieldRef, seq int64) ([]*Patch, error)

	// Count 获取字段补丁数量
	Count(ctx context.Context, ref FieldRef) (int64, error)
}

// FieldRepository 字段当前值仓储接口
type FieldRepository interface {
	// Get 获取字段，不存在时返回 gorm.ErrRecordNotFound
	Get(ctx context.Context, ref FieldRef) (*FieldValue, error)

	// Save 保存字段新值，expectVersion >= 0 时仅在存储版本等于 expectVersion 时写入，
	// 否则返回 ErrVersionConflict；expectVersion < 0 时直接覆盖
	Save(ctx context.Context, field *FieldValue, expectVersion int64) (*FieldValue, error)

	// ListRefs 列出全部已写入的字段
	ListRefs(ctx context.Context) ([]FieldRef, error)
}

// UnitOfWork 在同一事务中提供两个仓储
type UnitOfWork interface {
	// Transaction fn 返回错误时整体回滚
	Transaction(ctx context.Context, fn func(ctx context.Context, patches PatchRepository, fields FieldRepository) error) error
}
