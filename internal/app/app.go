package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/wicky/internal/dao"
	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/internal/service"
	pkgapp "github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/difftool"
	"github.com/haierkeys/wicky/pkg/merge"
	"github.com/haierkeys/wicky/pkg/workerpool"
	"github.com/haierkeys/wicky/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 启动时间
	StartTime time.Time

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// 文本工具与合并引擎
	Tools  *difftool.Tools
	Engine *merge.Engine

	// Repository 层
	PatchRepo  domain.PatchRepository
	FieldRepo  domain.FieldRepository
	UnitOfWork domain.UnitOfWork

	// Service 层
	FieldService   service.FieldService
	HistoryService service.HistoryService

	// 关闭控制
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error
	wg           sync.WaitGroup
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 初始化文本工具与合并引擎
	a.Tools = difftool.New(cfg.GetDiffToolConfig(), logger)
	if missing := a.Tools.Available(); len(missing) > 0 {
		logger.Warn("text tools not found, field updates will fail",
			zap.Strings("missing", missing))
	}
	a.Engine = merge.NewEngine(a.Tools, logger)

	// 初始化 DAO（使用依赖注入）
	a.Dao = dao.New(db, dao.WithLogger(logger))

	// 初始化 Repository 层
	a.PatchRepo = dao.NewPatchRepository(a.Dao)
	a.FieldRepo = dao.NewFieldRepository(a.Dao)
	a.UnitOfWork = dao.NewUnitOfWork(a.Dao)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := &service.ServiceConfig{
		Field: service.FieldServiceConfig{
			CompareAndSwap: cfg.Field.CompareAndSwap,
			MaxValueSize:   cfg.GetMaxValueSize(),
		},
		History: service.HistoryServiceConfig{
			CacheSize: cfg.History.CacheSize,
		},
	}

	// 初始化 Service 层（依赖注入）
	history, err := service.NewHistoryService(a.PatchRepo, a.FieldRepo, a.Engine, logger, &svcConfig.History)
	if err != nil {
		return nil, fmt.Errorf("init history service: %w", err)
	}
	a.HistoryService = history
	a.FieldService = service.NewFieldService(a.FieldRepo, a.UnitOfWork, a.HistoryService, a.Engine, a.writeQueueMgr, logger, &svcConfig.Field)

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity),
		zap.Bool("compareAndSwap", cfg.Field.CompareAndSwap))

	return a, nil
}

// closeDB 关闭数据库连接
func (a *App) closeDB() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	a.logger.Info("database connection closed")
	return nil
}

func (a *App) Config() *AppConfig {
	return a.config
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// WorkerPool is shared by the background tasks.
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager serializes updates per field key.
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown stops the container. In-flight field updates finish first, then background
// tasks, then tracked request handlers; the database is closed last.
// A nil ctx uses DefaultShutdownTimeout. Calling Shutdown again is a no-op.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
		a.shutdownErr = a.shutdown(ctx)
	})
	return a.shutdownErr
}

func (a *App) shutdown(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}
	a.logger.Info("app container shutting down")

	var errs []error

	if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
		a.logger.Warn("write queue shutdown", zap.Error(err))
		errs = append(errs, fmt.Errorf("write queue shutdown: %w", err))
	}

	if err := a.workerPool.Shutdown(ctx); err != nil {
		a.logger.Warn("worker pool shutdown", zap.Error(err))
		errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("tracked operations: %w", ctx.Err()))
	}

	if err := a.closeDB(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("app container shutdown completed with errors", zap.Error(err))
		return err
	}
	a.logger.Info("app container shutdown completed")
	return nil
}

// IsShuttingDown 是否已开始关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// TrackOperation registers a request that Shutdown waits for. Call the returned func when it ends.
// TrackOperation 登记一个关闭时需要等待的操作
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	var once sync.Once
	return func() {
		once.Do(a.wg.Done)
	}
}
