package task

import (
	"context"
	"time"

	"github.com/haierkeys/wicky/internal/app"

	"go.uber.org/zap"
)

// staleWorkspaceAge 超过该时间的工具临时目录视为残留
const staleWorkspaceAge = time.Hour

// WorkspaceCleanupTask 清理进程异常退出后残留的文本工具临时目录
type WorkspaceCleanupTask struct {
	app    *app.App
	logger *zap.Logger
}

// Name 任务名称
func (t *WorkspaceCleanupTask) Name() string {
	return "WorkspaceCleanup"
}

// LoopInterval 每小时执行一次
func (t *WorkspaceCleanupTask) LoopInterval() time.Duration {
	return time.Hour
}

// IsStartupRun 启动时执行一次
func (t *WorkspaceCleanupTask) IsStartupRun() bool {
	return true
}

// Run 执行清理
func (t *WorkspaceCleanupTask) Run(ctx context.Context) error {
	removed, err := t.app.Tools.SweepStale(staleWorkspaceAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		t.logger.Info("stale tool workspaces removed", zap.Int("count", removed))
	}
	return nil
}

// NewWorkspaceCleanupTask 创建临时目录清理任务
func NewWorkspaceCleanupTask(appContainer *app.App) (Task, error) {
	return &WorkspaceCleanupTask{
		app:    appContainer,
		logger: appContainer.Logger(),
	}, nil
}

func init() {
	RegisterWithApp(NewWorkspaceCleanupTask)
}
