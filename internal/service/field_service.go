package service

import (
	"context"
	"time"

	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/internal/dto"
	"github.com/haierkeys/wicky/pkg/code"
	"github.com/haierkeys/wicky/pkg/logger"
	"github.com/haierkeys/wicky/pkg/timex"
	"github.com/haierkeys/wicky/pkg/writequeue"

	"go.uber.org/zap"
)

// FieldService defines the merge-tracked field business service interface
// FieldService 定义可合并字段业务服务接口
type FieldService interface {
	// Get returns the current value and version of a field
	// Get 获取字段当前值与版本
	Get(ctx context.Context, params *dto.FieldRefRequest) (*dto.FieldDTO, error)

	// Update merges a client edit into the field; a conflict is returned as data
	// Update 将客户端修改合入字段，冲突作为结果数据返回
	Update(ctx context.Context, params *dto.FieldUpdateRequest) (*dto.FieldUpdateResult, error)

	// Restore submits the value at a history index as a new edit
	// Restore 将历史值作为一次新的修改提交
	Restore(ctx context.Context, params *dto.FieldRestoreRequest) (*dto.FieldUpdateResult, error)
}

// fieldService implementation of FieldService interface
// fieldService 实现 FieldService 接口
type fieldService struct {
	fieldRepo domain.FieldRepository // Field repository // 字段仓库
	uow       domain.UnitOfWork      // Transaction boundary // 事务边界
	history   HistoryService         // History service // 历史服务
	protocol  *UpdateProtocol        // Update protocol // 更新协议
	queue     *writequeue.Manager    // Per-field write queue // 按字段串行的写队列
	logger    *zap.Logger            // Logger // 日志对象
	config    *FieldServiceConfig    // Service configuration // 服务配置
}

// NewFieldService creates FieldService instance
// NewFieldService 创建 FieldService 实例
func NewFieldService(fieldRepo domain.FieldRepository, uow domain.UnitOfWork, history HistoryService, merger Merger, queue *writequeue.Manager, logger *zap.Logger, config *FieldServiceConfig) FieldService {
	if config == nil {
		config = &FieldServiceConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fieldService{
		fieldRepo: fieldRepo,
		uow:       uow,
		history:   history,
		protocol:  NewUpdateProtocol(merger, logger),
		queue:     queue,
		logger:    logger,
		config:    config,
	}
}

// Get 获取字段当前值
func (s *fieldService) Get(ctx context.Context, params *dto.FieldRefRequest) (*dto.FieldDTO, error) {
	ref, err := domain.NewFieldRef(params.OwnerKind, params.OwnerID, params.Field)
	if err != nil {
		return nil, toCode(err)
	}
	f, err := currentField(ctx, s.fieldRepo, ref)
	if err != nil {
		return nil, toCode(err)
	}
	return &dto.FieldDTO{
		OwnerKind: string(ref.Kind),
		OwnerID:   ref.ID,
		Field:     ref.Field,
		Value:     f.Value,
		Version:   f.Version,
		UpdatedAt: timex.Time(f.UpdatedAt),
	}, nil
}

// Update 合并客户端修改
func (s *fieldService) Update(ctx context.Context, params *dto.FieldUpdateRequest) (*dto.FieldUpdateResult, error) {
	ref, err := domain.NewFieldRef(params.OwnerKind, params.OwnerID, params.Field)
	if err != nil {
		return nil, toCode(err)
	}
	if s.tooLarge(params.Value) || s.tooLarge(params.Baseline) {
		return nil, code.ErrorFieldTooLarge
	}

	return s.attempt(ctx, ref, func(current *domain.FieldValue) (UpdateAttempt, error) {
		return UpdateAttempt{Current: current.Value, Baseline: params.Baseline, Edit: params.Value}, nil
	})
}

// Restore 恢复到历史值，记录为一次新的修改
func (s *fieldService) Restore(ctx context.Context, params *dto.FieldRestoreRequest) (*dto.FieldUpdateResult, error) {
	ref, err := domain.NewFieldRef(params.OwnerKind, params.OwnerID, params.Field)
	if err != nil {
		return nil, toCode(err)
	}

	return s.attempt(ctx, ref, func(current *domain.FieldValue) (UpdateAttempt, error) {
		value, err := s.history.ReconstructAt(ctx, ref, current.Value, params.Index)
		if err != nil {
			return UpdateAttempt{}, err
		}
		return UpdateAttempt{Current: current.Value, Baseline: current.Value, Edit: value}, nil
	})
}

func (s *fieldService) tooLarge(v string) bool {
	return s.config.MaxValueSize > 0 && int64(len(v)) > s.config.MaxValueSize
}

// attempt runs one update attempt inside the field's write queue
// attempt 在字段写队列中执行一次更新尝试
func (s *fieldService) attempt(ctx context.Context, ref domain.FieldRef, build func(current *domain.FieldValue) (UpdateAttempt, error)) (*dto.FieldUpdateResult, error) {
	var result *dto.FieldUpdateResult
	start := time.Now()

	err := s.queue.Execute(ctx, ref.Key(), func() error {
		current, err := currentField(ctx, s.fieldRepo, ref)
		if err != nil {
			return err
		}
		attempt, err := build(current)
		if err != nil {
			return err
		}

		res, err := s.protocol.Run(ctx, attempt, s.saver(ref, current))
		if err != nil {
			return err
		}

		result = &dto.FieldUpdateResult{
			IsConflicted: res.IsConflicted(),
			Value:        res.Value,
			Version:      current.Version,
		}
		if res.Patch != nil {
			result.Version = res.Patch.Seq
			result.Patch = newPatchDTO(res.Patch, true, s.logger)
		}

		switch {
		case res.IsConflicted():
			fieldUpdates.WithLabelValues("rejected").Inc()
		case res.Patch == nil:
			fieldUpdates.WithLabelValues("unchanged").Inc()
		default:
			fieldUpdates.WithLabelValues("applied").Inc()
		}
		return nil
	})

	if err != nil {
		fieldUpdates.WithLabelValues("failed").Inc()
		s.logger.Warn("field update failed",
			zap.String(logger.FieldField, ref.Key()),
			zap.Duration(logger.FieldDuration, time.Since(start)),
			zap.Error(err))
		return nil, toCode(err)
	}

	s.logger.Info("field update finished",
		zap.String(logger.FieldField, ref.Key()),
		zap.Bool("isConflicted", result.IsConflicted),
		zap.Int64("version", result.Version),
		zap.Duration(logger.FieldDuration, time.Since(start)))
	return result, nil
}

// saver persists the merged value and its patch in one transaction
// saver 在同一事务中追加补丁并保存新值
func (s *fieldService) saver(ref domain.FieldRef, current *domain.FieldValue) SaveFunc {
	return func(ctx context.Context, merged, patch string) (*domain.Patch, error) {
		var saved *domain.Patch
		err := s.uow.Transaction(ctx, func(ctx context.Context, patches domain.PatchRepository, fields domain.FieldRepository) error {
			p, err := appendPatch(ctx, patches, ref, patch)
			if err != nil {
				return err
			}

			next := *current
			next.Value = merged
			next.Version = p.Seq

			expect := int64(-1)
			if s.config.CompareAndSwap {
				expect = current.Version
			}
			if _, err := fields.Save(ctx, &next, expect); err != nil {
				return err
			}
			saved = p
			return nil
		})
		return saved, err
	}
}
