package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/internal/model"
	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/logger"
	"github.com/haierkeys/wicky/pkg/timex"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// patchRepository 实现 domain.PatchRepository 接口
type patchRepository struct {
	dao *Dao
}

// NewPatchRepository 创建 PatchRepository 实例
func NewPatchRepository(dao *Dao) domain.PatchRepository {
	return &patchRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *patchRepository) toDomain(m *model.Patch) *domain.Patch {
	if m == nil {
		return nil
	}
	return &domain.Patch{
		ID:        m.ID,
		UUID:      m.UUID,
		OwnerKind: domain.OwnerKind(m.OwnerKind),
		OwnerID:   m.OwnerID,
		Field:     m.Field,
		Seq:       m.Seq,
		Content:   m.Content,
		CreatedAt: time.Time(m.CreatedAt),
	}
}

func (r *patchRepository) toDomainList(ms []*model.Patch) []*domain.Patch {
	list := make([]*domain.Patch, 0, len(ms))
	for _, m := range ms {
		list = append(list, r.toDomain(m))
	}
	return list
}

// byRef 限定到一个字段
func (r *patchRepository) byRef(ctx context.Context, ref domain.FieldRef) *gorm.DB {
	return r.dao.DB(ctx).Model(&model.Patch{}).
		Where("owner_kind = ? AND owner_id = ? AND field = ?", string(ref.Kind), ref.ID, ref.Field)
}

// Append 追加补丁
func (r *patchRepository) Append(ctx context.Context, patch *domain.Patch) (*domain.Patch, error) {
	ref := patch.Ref()

	var maxSeq int64
	if err := r.byRef(ctx, ref).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return nil, err
	}

	createdAt := patch.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	id := patch.UUID
	if id == "" {
		id = uuid.New().String()
	}

	m := &model.Patch{
		UUID:      id,
		OwnerKind: string(ref.Kind),
		OwnerID:   ref.ID,
		Field:     ref.Field,
		Seq:       maxSeq + 1,
		Content:   patch.Content,
		CreatedAt: timex.Time(createdAt),
	}
	if err := r.dao.DB(ctx).Create(m).Error; err != nil {
		return nil, err
	}

	r.dao.Logger().Debug("patch appended",
		zap.String(logger.FieldField, ref.Key()),
		zap.Int64(logger.FieldSeq, m.Seq),
		zap.String(logger.FieldMethod, "patchRepository.Append"))

	return r.toDomain(m), nil
}

// GetByID 根据ID获取补丁
func (r *patchRepository) GetByID(ctx context.Context, id int64) (*domain.Patch, error) {
	var m model.Patch
	if err := r.dao.DB(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetByUUID 根据UUID获取补丁
func (r *patchRepository) GetByUUID(ctx context.Context, id string) (*domain.Patch, error) {
	var m model.Patch
	if err := r.dao.DB(ctx).Where("uuid = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// ListByRef 分页获取字段补丁
func (r *patchRepository) ListByRef(ctx context.Context, ref domain.FieldRef, page, pageSize int) ([]*domain.Patch, error) {
	var ms []*model.Patch
	err := r.byRef(ctx, ref).
		Order("seq DESC").
		Offset(app.GetPageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

// ListAllByRef 获取字段全部补丁
func (r *patchRepository) ListAllByRef(ctx context.Context, ref domain.FieldRef) ([]*domain.Patch, error) {
	var ms []*model.Patch
	if err := r.byRef(ctx, ref).Order("seq ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

// ListAfterSeq 获取 seq 之后的补丁
func (r *patchRepository) ListAfterSeq(ctx context.Context, ref domain.FieldRef, seq int64) ([]*domain.Patch, error) {
	var ms []*model.Patch
	if err := r.byRef(ctx, ref).Where("seq > ?", seq).Order("seq DESC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

// Count 获取字段补丁数量
func (r *patchRepository) Count(ctx context.Context, ref domain.FieldRef) (int64, error) {
	var count int64
	if err := r.byRef(ctx, ref).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
