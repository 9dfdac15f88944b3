package service

import (
	"context"

	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/pkg/logger"
	"github.com/haierkeys/wicky/pkg/merge"

	"go.uber.org/zap"
)

// Merger is the part of the merge engine the update protocol needs
// Merger 更新协议依赖的合并引擎能力
type Merger interface {
	Merge3(ctx context.Context, mine, original, theirs string) (merge.Outcome, error)
	Diff(ctx context.Context, a, b string) (string, error)
}

// SaveFunc persists merged as the new field value and appends patch to its history.
// Both happen or neither does.
// SaveFunc 保存合并结果并追加补丁，二者要么同时生效要么都不生效
type SaveFunc func(ctx context.Context, merged, patch string) (*domain.Patch, error)

// UpdateState 一次更新尝试的状态
type UpdateState int

const (
	StateAttempting UpdateState = iota
	StateApplied
	StateRejected
)

func (s UpdateState) String() string {
	switch s {
	case StateApplied:
		return "applied"
	case StateRejected:
		return "rejected"
	default:
		return "attempting"
	}
}

// UpdateAttempt 一次更新的输入
type UpdateAttempt struct {
	// Current 服务端当前值
	Current string
	// Baseline 客户端开始编辑时的值
	Baseline string
	// Edit 客户端提交的新值
	Edit string
}

// UpdateResult 一次更新的终态
// Rejected 时 Value 是带冲突标记的文本；Applied 且内容未变化时 Patch 为 nil
type UpdateResult struct {
	State UpdateState
	Value string
	Patch *domain.Patch
}

func (r UpdateResult) IsConflicted() bool {
	return r.State == StateRejected
}

// UpdateProtocol reconciles a client edit with the server value through a three-way merge
// UpdateProtocol 通过三方合并把客户端修改合入服务端当前值
type UpdateProtocol struct {
	merger Merger
	logger *zap.Logger
}

func NewUpdateProtocol(m Merger, lg *zap.Logger) *UpdateProtocol {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &UpdateProtocol{merger: m, logger: lg}
}

// Run merges the client's change (baseline -> edit) into the current value.
// An error means the attempt did not happen; a conflict is a Rejected result, not an error.
// Run 将客户端的修改合入当前值；返回 error 表示本次尝试未生效，冲突以 Rejected 结果返回
func (p *UpdateProtocol) Run(ctx context.Context, attempt UpdateAttempt, save SaveFunc) (UpdateResult, error) {
	outcome, err := p.merger.Merge3(ctx, attempt.Edit, attempt.Baseline, attempt.Current)
	if err != nil {
		return UpdateResult{State: StateAttempting}, err
	}

	if outcome.Conflicted {
		return UpdateResult{State: StateRejected, Value: outcome.Text}, nil
	}

	merged := outcome.Text
	if merged == attempt.Current {
		// 修改已包含在当前值中，不追加空补丁
		return UpdateResult{State: StateApplied, Value: merged}, nil
	}

	patch, err := p.merger.Diff(ctx, attempt.Current, merged)
	if err != nil {
		return UpdateResult{State: StateAttempting}, err
	}

	saved, err := save(ctx, merged, patch)
	if err != nil {
		return UpdateResult{State: StateAttempting}, err
	}

	p.logger.Debug("field update applied",
		zap.Int64(logger.FieldSeq, saved.Seq),
		zap.Int(logger.FieldSize, len(merged)))

	return UpdateResult{State: StateApplied, Value: merged, Patch: saved}, nil
}
