package dao

import (
	"context"
	"time"

	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/internal/model"
	"github.com/haierkeys/wicky/pkg/timex"
)

// fieldRepository 实现 domain.FieldRepository 接口
type fieldRepository struct {
	dao *Dao
}

// NewFieldRepository 创建 FieldRepository 实例
func NewFieldRepository(dao *Dao) domain.FieldRepository {
	return &fieldRepository{dao: dao}
}

func (r *fieldRepository) toDomain(m *model.FieldValue) *domain.FieldValue {
	if m == nil {
		return nil
	}
	return &domain.FieldValue{
		ID:        m.ID,
		OwnerKind: domain.OwnerKind(m.OwnerKind),
		OwnerID:   m.OwnerID,
		Field:     m.Field,
		Value:     m.Value,
		Version:   m.Version,
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

func (r *fieldRepository) find(ctx context.Context, ref domain.FieldRef) (*model.FieldValue, error) {
	var m model.FieldValue
	err := r.dao.DB(ctx).
		Where("owner_kind = ? AND owner_id = ? AND field = ?", string(ref.Kind), ref.ID, ref.Field).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Get 获取字段当前值
func (r *fieldRepository) Get(ctx context.Context, ref domain.FieldRef) (*domain.FieldValue, error) {
	m, err := r.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// Save 保存字段新值
func (r *fieldRepository) Save(ctx context.Context, field *domain.FieldValue, expectVersion int64) (*domain.FieldValue, error) {
	ref := field.Ref()
	now := time.Now()

	existing, err := r.find(ctx, ref)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	if existing == nil {
		// 首次写入，期望版本只能是 0
		if expectVersion > 0 {
			return nil, domain.ErrVersionConflict
		}
		m := &model.FieldValue{
			OwnerKind: string(ref.Kind),
			OwnerID:   ref.ID,
			Field:     ref.Field,
			Value:     field.Value,
			Version:   field.Version,
			CreatedAt: timex.Time(now),
			UpdatedAt: timex.Time(now),
		}
		if err := r.dao.DB(ctx).Create(m).Error; err != nil {
			return nil, err
		}
		return r.toDomain(m), nil
	}

	q := r.dao.DB(ctx).Model(&model.FieldValue{}).Where("id = ?", existing.ID)
	if expectVersion >= 0 {
		q = q.Where("version = ?", expectVersion)
	}
	res := q.Updates(map[string]interface{}{
		"value":      field.Value,
		"version":    field.Version,
		"updated_at": timex.Time(now),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 && expectVersion >= 0 {
		return nil, domain.ErrVersionConflict
	}

	existing.Value = field.Value
	existing.Version = field.Version
	existing.UpdatedAt = timex.Time(now)
	return r.toDomain(existing), nil
}

// ListRefs 列出全部已写入的字段
func (r *fieldRepository) ListRefs(ctx context.Context) ([]domain.FieldRef, error) {
	var ms []*model.FieldValue
	err := r.dao.DB(ctx).
		Select("owner_kind", "owner_id", "field").
		Order("owner_kind, owner_id, field").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	refs := make([]domain.FieldRef, 0, len(ms))
	for _, m := range ms {
		refs = append(refs, r.toDomain(m).Ref())
	}
	return refs, nil
}
