package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/pkg/logger"
	"github.com/haierkeys/wicky/pkg/workerpool"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HistoryVerifyTask 定时回放每个字段的补丁历史，发现损坏时记录日志
type HistoryVerifyTask struct {
	app      *app.App
	logger   *zap.Logger
	schedule cron.Schedule
	workers  int
}

// Name 返回任务名称
func (t *HistoryVerifyTask) Name() string {
	return "HistoryVerify"
}

// LoopInterval 由 cron 表达式决定执行时间
func (t *HistoryVerifyTask) LoopInterval() time.Duration {
	return 0
}

// IsStartupRun 启动时不执行
func (t *HistoryVerifyTask) IsStartupRun() bool {
	return false
}

// Schedule 返回 cron 调度
func (t *HistoryVerifyTask) Schedule() cron.Schedule {
	return t.schedule
}

// VerifyReport 一次校验的汇总
type VerifyReport struct {
	Fields    int
	Valid     int64
	Corrupted int64
	Failed    int64
}

// Run 执行一次全量校验
func (t *HistoryVerifyTask) Run(ctx context.Context) error {
	report, err := t.verify(ctx)
	if err != nil {
		return err
	}

	t.logger.Info("history verify finished",
		zap.Int("fields", report.Fields),
		zap.Int64("valid", report.Valid),
		zap.Int64("corrupted", report.Corrupted),
		zap.Int64("failed", report.Failed))

	if report.Corrupted > 0 {
		return fmt.Errorf("%d field histories are corrupted", report.Corrupted)
	}
	return nil
}

// verify 按 workers 分批提交到共享 Worker Pool，避免占满任务池
func (t *HistoryVerifyTask) verify(ctx context.Context) (*VerifyReport, error) {
	refs, err := t.app.FieldRepo.ListRefs(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{Fields: len(refs)}
	var valid, corrupted, failed atomic.Int64

	for start := 0; start < len(refs); start += t.workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+t.workers, len(refs))

		tasks := make([]workerpool.Task, 0, end-start)
		for _, ref := range refs[start:end] {
			tasks = append(tasks, t.verifyOne(ref, &valid, &corrupted))
		}

		for i, err := range t.app.WorkerPool().RunAll(ctx, tasks) {
			if err == nil {
				continue
			}
			failed.Add(1)
			ref := refs[start+i]
			t.logger.Warn("history verify failed",
				zap.String(logger.FieldOwnerKind, string(ref.Kind)),
				zap.Int64(logger.FieldOwnerID, ref.ID),
				zap.String(logger.FieldField, ref.Field),
				zap.Error(err))
		}
	}

	report.Valid = valid.Load()
	report.Corrupted = corrupted.Load()
	report.Failed = failed.Load()
	return report, nil
}

func (t *HistoryVerifyTask) verifyOne(ref domain.FieldRef, valid, corrupted *atomic.Int64) workerpool.Task {
	return func(ctx context.Context) error {
		res, err := t.app.HistoryService.Verify(ctx, ref)
		if err != nil {
			return err
		}
		if res.Valid {
			valid.Add(1)
		} else {
			corrupted.Add(1)
		}
		return nil
	}
}

// NewHistoryVerifyTask 创建历史校验任务，cron 为 off 时返回 nil
func NewHistoryVerifyTask(appContainer *app.App) (Task, error) {
	cfg := appContainer.Config().History
	if !cfg.VerifyEnabled() {
		appContainer.Logger().Info("history verify task is disabled")
		return nil, nil
	}

	schedule, err := app.CronParser.Parse(cfg.VerifyCron)
	if err != nil {
		return nil, fmt.Errorf("parse history.verify-cron %q: %w", cfg.VerifyCron, err)
	}

	workers := cfg.VerifyWorkers
	if workers <= 0 {
		workers = 1
	}

	return &HistoryVerifyTask{
		app:      appContainer,
		logger:   appContainer.Logger(),
		schedule: schedule,
		workers:  workers,
	}, nil
}

func init() {
	RegisterWithApp(NewHistoryVerifyTask)
}
