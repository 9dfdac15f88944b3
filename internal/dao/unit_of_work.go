package dao

import (
	"context"

	"github.com/haierkeys/wicky/internal/domain"

	"gorm.io/gorm"
)

// unitOfWork 实现 domain.UnitOfWork 接口
type unitOfWork struct {
	dao *Dao
}

// NewUnitOfWork 创建 UnitOfWork 实例
func NewUnitOfWork(dao *Dao) domain.UnitOfWork {
	return &unitOfWork{dao: dao}
}

// Transaction 在同一事务中执行 fn，补丁追加与字段保存要么同时成功要么同时回滚
func (u *unitOfWork) Transaction(ctx context.Context, fn func(ctx context.Context, patches domain.PatchRepository, fields domain.FieldRepository) error) error {
	return u.dao.DB(ctx).Transaction(func(tx *gorm.DB) error {
		txDao := u.dao.withTx(tx)
		return fn(ctx, NewPatchRepository(txDao), NewFieldRepository(txDao))
	})
}
