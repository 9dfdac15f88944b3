package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/internal/dto"
	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"
	"github.com/haierkeys/wicky/pkg/convert"
	"github.com/haierkeys/wicky/pkg/logger"
	"github.com/haierkeys/wicky/pkg/merge"
	"github.com/haierkeys/wicky/pkg/util"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// PatchEngine is the merge engine surface used for history replay
// PatchEngine 历史回放使用的合并引擎能力
type PatchEngine interface {
	Merger
	Patch(ctx context.Context, source string, patches ...string) (string, error)
	ReversePatch(ctx context.Context, source string, patches ...string) (string, error)
}

// HistoryService defines the patch history business service interface
// HistoryService 定义补丁历史业务服务接口
type HistoryService interface {
	// Append appends a patch to the field history with the next Seq
	// Append 以下一个序号追加补丁
	Append(ctx context.Context, ref domain.FieldRef, content string) (*domain.Patch, error)

	// ReconstructAt returns the value after the first index patches, by reverse-applying newer ones to current
	// ReconstructAt 从 current 倒推，返回应用前 index 个补丁后的值；0 为初始空值
	ReconstructAt(ctx context.Context, ref domain.FieldRef, current string, index int64) (string, error)

	// Value returns the field value at a history index
	// Value 获取字段在某个历史序号的值
	Value(ctx context.Context, params *dto.FieldHistoryRequest) (*dto.FieldHistoryDTO, error)

	// List returns the patches of a field, newest first
	// List 分页获取字段补丁，最新的在前
	List(ctx context.Context, params *dto.PatchListRequest, pager *app.Pager) ([]*dto.PatchDTO, int64, error)

	// GetPatch returns one patch with the values before and after it
	// GetPatch 获取补丁详情
	GetPatch(ctx context.Context, params *dto.PatchGetRequest) (*dto.PatchDetailDTO, error)

	// Verify replays the whole history from the seed and compares it with the stored value
	// Verify 从初始值正向回放全部补丁并与存储值比较
	Verify(ctx context.Context, ref domain.FieldRef) (*dto.FieldVerifyDTO, error)
}

// historyService implementation of HistoryService interface
// historyService 实现 HistoryService 接口
type historyService struct {
	patchRepo domain.PatchRepository     // Patch repository // 补丁仓库
	fieldRepo domain.FieldRepository     // Field repository // 字段仓库
	engine    PatchEngine                // Merge engine // 合并引擎
	cache     *lru.Cache[string, string] // Reconstructed values // 历史值缓存
	sf        *singleflight.Group        // Singleflight group // 并发请求合并组
	logger    *zap.Logger                // Logger // 日志对象
}

// NewHistoryService creates HistoryService instance
// NewHistoryService 创建 HistoryService 实例
func NewHistoryService(patchRepo domain.PatchRepository, fieldRepo domain.FieldRepository, engine PatchEngine, logger *zap.Logger, config *HistoryServiceConfig) (HistoryService, error) {
	if config == nil {
		config = &HistoryServiceConfig{}
	}
	size := config.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &historyService{
		patchRepo: patchRepo,
		fieldRepo: fieldRepo,
		engine:    engine,
		cache:     cache,
		sf:        &singleflight.Group{},
		logger:    logger,
	}, nil
}

// Append appends a patch to the field history
// Append 追加补丁
func (s *historyService) Append(ctx context.Context, ref domain.FieldRef, content string) (*domain.Patch, error) {
	return appendPatch(ctx, s.patchRepo, ref, content)
}

// appendPatch 在给定仓储（可能处于事务中）上追加补丁
func appendPatch(ctx context.Context, repo domain.PatchRepository, ref domain.FieldRef, content string) (*domain.Patch, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	// 拒绝无法解析的补丁，避免破坏历史
	if err := merge.Validate(content); err != nil {
		return nil, err
	}
	return repo.Append(ctx, &domain.Patch{
		OwnerKind: ref.Kind,
		OwnerID:   ref.ID,
		Field:     ref.Field,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// ReconstructAt reverse-applies the patches newer than index to current
// ReconstructAt 倒序撤销 index 之后的补丁
func (s *historyService) ReconstructAt(ctx context.Context, ref domain.FieldRef, current string, index int64) (string, error) {
	total, err := s.patchRepo.Count(ctx, ref)
	if err != nil {
		return "", err
	}
	return s.reconstruct(ctx, ref, current, total, index)
}

// reconstruct 从第 total 个补丁之后的值 current 倒推，更新的补丁不参与
func (s *historyService) reconstruct(ctx context.Context, ref domain.FieldRef, current string, total, index int64) (string, error) {
	if index < 0 || index > total {
		return "", fmt.Errorf("%w: %d not in [0, %d]", ErrHistoryIndexOutOfRange, index, total)
	}
	if index == total {
		return current, nil
	}

	key := util.Digest(ref.Key(), strconv.FormatInt(total, 10), strconv.FormatInt(index, 10), current)
	if v, ok := s.cache.Get(key); ok {
		historyReconstructions.WithLabelValues("cache").Inc()
		return v, nil
	}

	ch := s.sf.DoChan(key, func() (interface{}, error) {
		// 共享的回放不随第一个调用方取消
		ctx := context.WithoutCancel(ctx)

		patches, err := s.patchRepo.ListAfterSeq(ctx, ref, index)
		if err != nil {
			return "", err
		}
		patches = upToSeq(patches, total)
		if int64(len(patches)) != total-index {
			return "", fmt.Errorf("%w: %s has %d patches in (%d, %d]", ErrHistoryCorrupted, ref, len(patches), index, total)
		}

		contents := make([]string, len(patches))
		for i, p := range patches {
			contents[i] = p.Content
		}

		out, err := s.engine.ReversePatch(ctx, current, contents...)
		if err != nil {
			var conflicted *merge.ConflictedError
			switch {
			case errors.As(err, &conflicted):
				seq := patches[conflicted.Index].Seq
				s.logger.Error("history corruption: patch does not reverse-apply",
					zap.String(logger.FieldField, ref.Key()),
					zap.Int64(logger.FieldSeq, seq),
					zap.String("rejects", conflicted.Rejects))
				return "", fmt.Errorf("%w: %s patch %d does not reverse-apply", ErrHistoryCorrupted, ref, seq)
			case merge.IsMalformedPatch(err):
				s.logger.Error("history corruption: stored patch is malformed",
					zap.String(logger.FieldField, ref.Key()),
					zap.Error(err))
				return "", fmt.Errorf("%w: %s has a malformed patch after %d: %v", ErrHistoryCorrupted, ref, index, err)
			}
			return "", err
		}

		s.cache.Add(key, out)
		return out, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		historyReconstructions.WithLabelValues("error").Inc()
		return "", res.Err
	}
	historyReconstructions.WithLabelValues("replay").Inc()
	return res.Val.(string), nil
}

// upToSeq 丢弃 seq 大于 total 的补丁，它们在读取当前值之后才提交
func upToSeq(patches []*domain.Patch, total int64) []*domain.Patch {
	kept := make([]*domain.Patch, 0, len(patches))
	for _, p := range patches {
		if p.Seq <= total {
			kept = append(kept, p)
		}
	}
	return kept
}

// current 读取字段当前值，未写入过的字段视为空值
func (s *historyService) current(ctx context.Context, ref domain.FieldRef) (*domain.FieldValue, error) {
	return currentField(ctx, s.fieldRepo, ref)
}

func currentField(ctx context.Context, repo domain.FieldRepository, ref domain.FieldRef) (*domain.FieldValue, error) {
	f, err := repo.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.EmptyField(ref), nil
		}
		return nil, err
	}
	return f, nil
}

// Value 获取字段在某个历史序号的值
func (s *historyService) Value(ctx context.Context, params *dto.FieldHistoryRequest) (*dto.FieldHistoryDTO, error) {
	ref, err := domain.NewFieldRef(params.OwnerKind, params.OwnerID, params.Field)
	if err != nil {
		return nil, toCode(err)
	}
	// 版本号即该值对应的补丁数，之后提交的补丁不影响本次读取
	field, err := s.current(ctx, ref)
	if err != nil {
		return nil, toCode(err)
	}
	total := field.Version
	value, err := s.reconstruct(ctx, ref, field.Value, total, params.Index)
	if err != nil {
		return nil, toCode(err)
	}
	return &dto.FieldHistoryDTO{
		OwnerKind: string(ref.Kind),
		OwnerID:   ref.ID,
		Field:     ref.Field,
		Index:     params.Index,
		Total:     total,
		Value:     value,
	}, nil
}

// newPatchDTO 转换补丁并附带统计信息
func newPatchDTO(p *domain.Patch, withContent bool, lg *zap.Logger) *dto.PatchDTO {
	d := &dto.PatchDTO{}
	if err := convert.StructAssign(p, d); err != nil {
		lg.Warn("copy patch failed", zap.Int64(logger.FieldPatchID, p.ID), zap.Error(err))
	}
	st, err := merge.Stat(p.Content)
	if err != nil {
		lg.Warn("stored patch does not parse",
			zap.Int64(logger.FieldPatchID, p.ID),
			zap.String(logger.FieldField, p.Ref().Key()),
			zap.Error(err))
	}
	d.Hunks, d.Added, d.Deleted = st.Hunks, st.Added, st.Deleted
	if !withContent {
		d.Content = ""
	}
	return d
}

// List 分页获取字段补丁
func (s *historyService) List(ctx context.Context, params *dto.PatchListRequest, pager *app.Pager) ([]*dto.PatchDTO, int64, error) {
	ref, err := domain.NewFieldRef(params.OwnerKind, params.OwnerID, params.Field)
	if err != nil {
		return nil, 0, toCode(err)
	}
	total, err := s.patchRepo.Count(ctx, ref)
	if err != nil {
		return nil, 0, toCode(err)
	}
	patches, err := s.patchRepo.ListByRef(ctx, ref, pager.Page, pager.PageSize)
	if err != nil {
		return nil, 0, toCode(err)
	}

	list := make([]*dto.PatchDTO, 0, len(patches))
	for _, p := range patches {
		list = append(list, newPatchDTO(p, false, s.logger))
	}
	return list, total, nil
}

// GetPatch 获取补丁详情
func (s *historyService) GetPatch(ctx context.Context, params *dto.PatchGetRequest) (*dto.PatchDetailDTO, error) {
	var (
		p   *domain.Patch
		err error
	)
	switch {
	case params.UUID != "":
		p, err = s.patchRepo.GetByUUID(ctx, params.UUID)
	case params.ID > 0:
		p, err = s.patchRepo.GetByID(ctx, params.ID)
	default:
		return nil, code.ErrorInvalidParams.WithDetails("id or uuid is required")
	}
	if err != nil {
		return nil, toCode(err)
	}

	ref := p.Ref()
	field, err := s.current(ctx, ref)
	if err != nil {
		return nil, toCode(err)
	}
	before, err := s.reconstruct(ctx, ref, field.Value, field.Version, p.Seq-1)
	if err != nil {
		return nil, toCode(err)
	}
	after, err := s.reconstruct(ctx, ref, field.Value, field.Version, p.Seq)
	if err != nil {
		return nil, toCode(err)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return &dto.PatchDetailDTO{
		PatchDTO: *newPatchDTO(p, true, s.logger),
		Before:   before,
		After:    after,
		Diffs:    diffs,
	}, nil
}

// Verify 从初始值正向回放全部补丁并与存储值比较
func (s *historyService) Verify(ctx context.Context, ref domain.FieldRef) (*dto.FieldVerifyDTO, error) {
	if err := ref.Validate(); err != nil {
		return nil, toCode(err)
	}
	field, err := s.current(ctx, ref)
	if err != nil {
		return nil, toCode(err)
	}
	patches, err := s.patchRepo.ListAllByRef(ctx, ref)
	if err != nil {
		return nil, toCode(err)
	}
	// 补丁与字段值在同一事务提交，读取字段之后追加的补丁不属于本次校验
	patches = upToSeq(patches, field.Version)

	res := &dto.FieldVerifyDTO{
		OwnerKind: string(ref.Kind),
		OwnerID:   ref.ID,
		Field:     ref.Field,
		Patches:   int64(len(patches)),
	}

	contents := make([]string, len(patches))
	for i, p := range patches {
		if p.Seq != int64(i+1) {
			return s.corrupted(res, fmt.Sprintf("seq gap: position %d holds seq %d", i+1, p.Seq)), nil
		}
		contents[i] = p.Content
	}
	if field.Version != int64(len(patches)) {
		return s.corrupted(res, fmt.Sprintf("field version %d, history has %d patches", field.Version, len(patches))), nil
	}

	out, err := s.engine.Patch(ctx, "", contents...)
	if err != nil {
		var conflicted *merge.ConflictedError
		if errors.As(err, &conflicted) {
			return s.corrupted(res, fmt.Sprintf("patch %d does not apply", patches[conflicted.Index].Seq)), nil
		}
		if merge.IsMalformedPatch(err) {
			return s.corrupted(res, "malformed patch: "+err.Error()), nil
		}
		historyVerifications.WithLabelValues("error").Inc()
		return nil, toCode(err)
	}
	if out != field.Value {
		return s.corrupted(res, "replayed value differs from stored value"), nil
	}

	res.Valid = true
	historyVerifications.WithLabelValues("valid").Inc()
	return res, nil
}

func (s *historyService) corrupted(res *dto.FieldVerifyDTO, reason string) *dto.FieldVerifyDTO {
	res.Reason = reason
	historyVerifications.WithLabelValues("corrupted").Inc()
	s.logger.Warn("history corruption detected",
		zap.String(logger.FieldOwnerKind, res.OwnerKind),
		zap.Int64(logger.FieldOwnerID, res.OwnerID),
		zap.String(logger.FieldField, res.Field),
		zap.String("reason", reason))
	return res
}
