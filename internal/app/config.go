// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/wicky/internal/dao"
	pkgapp "github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/convert"
	"github.com/haierkeys/wicky/pkg/difftool"
	"github.com/haierkeys/wicky/pkg/util"
	"github.com/haierkeys/wicky/pkg/workerpool"
	"github.com/haierkeys/wicky/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Merge    MergeConfig    `yaml:"merge"`
	Field    FieldConfig    `yaml:"field"`
	History  HistoryConfig  `yaml:"history"`
	App      AppSettings    `yaml:"app"`
	Tracer   TracerConfig   `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，为空时输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址（metrics / pprof），为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9001"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型 sqlite / mysql / postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset 字符集
	Charset string `yaml:"charset" default:"utf8mb4"`
	// ParseTime 是否解析时间
	ParseTime bool `yaml:"parse-time" default:"true"`
	// MaxIdleConns 最大闲置连接数，默认 10
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数，默认 100
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，支持格式：30m（分钟）、1h（小时），默认 30m
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期，支持格式：10m（分钟）、1h（小时），默认 10m
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// MergeConfig 外部文本工具配置
type MergeConfig struct {
	// DiffPath diff 可执行文件，为空时从 PATH 查找
	DiffPath string `yaml:"diff-path" default:"diff"`
	// PatchPath patch 可执行文件
	PatchPath string `yaml:"patch-path" default:"patch"`
	// Diff3Path diff3 可执行文件
	Diff3Path string `yaml:"diff3-path" default:"diff3"`
	// TempDir 每次操作的临时目录所在位置，为空时使用系统临时目录
	TempDir string `yaml:"temp-dir"`
	// ToolTimeout 单个外部进程的最长运行时间，默认 10s
	ToolTimeout string `yaml:"tool-timeout" default:"10s"`
}

// FieldConfig 字段更新配置
type FieldConfig struct {
	// CompareAndSwap 保存时校验存储版本，并发写入时返回字段已过期
	CompareAndSwap bool `yaml:"compare-and-swap" default:"false"`
	// MaxValueSize 提交值的最大大小，支持 KB / MB
	MaxValueSize string `yaml:"max-value-size" default:"1MB"`
}

// HistoryConfig 补丁历史配置
type HistoryConfig struct {
	// CacheSize 历史值缓存条目数
	CacheSize int `yaml:"cache-size" default:"256"`
	// VerifyCron 历史校验任务的 cron 表达式（分 时 日 月 周），设置为 off 时不启用
	VerifyCron string `yaml:"verify-cron" default:"0 3 * * *"`
	// VerifyWorkers 历史校验并发数
	VerifyWorkers int `yaml:"verify-workers" default:"4"`
}

// CronParser 五段式 cron 表达式解析器
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// VerifyEnabled 是否启用定时历史校验
func (h HistoryConfig) VerifyEnabled() bool {
	return h.VerifyCron != "" && h.VerifyCron != "off"
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// RateLimit 每个接口每秒允许的请求数，0 表示不限流
	RateLimit int64 `yaml:"rate-limit" default:"50"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"100"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	if _, err := util.ParseDuration(c.Merge.ToolTimeout); err != nil {
		return nil, realpath, errors.Wrap(err, "invalid merge.tool-timeout")
	}
	if _, err := convert.StrTo(c.Field.MaxValueSize).ToSize(); err != nil {
		return nil, realpath, errors.Wrap(err, "invalid field.max-value-size")
	}
	if c.History.VerifyEnabled() {
		if _, err := CronParser.Parse(c.History.VerifyCron); err != nil {
			return nil, realpath, errors.Wrap(err, "invalid history.verify-cron")
		}
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

// GetDiffToolConfig 获取外部文本工具配置
func (c *AppConfig) GetDiffToolConfig() difftool.Config {
	cfg := difftool.Config{
		DiffPath:  c.Merge.DiffPath,
		PatchPath: c.Merge.PatchPath,
		Diff3Path: c.Merge.Diff3Path,
		TempDir:   c.Merge.TempDir,
	}
	if timeout, err := util.ParseDuration(c.Merge.ToolTimeout); err == nil {
		cfg.Timeout = timeout
	}
	return cfg
}

// GetPaginationConfig 获取分页配置
func (c *AppConfig) GetPaginationConfig() pkgapp.PaginationConfig {
	cfg := pkgapp.DefaultPaginationConfig
	if c.App.DefaultPageSize > 0 {
		cfg.DefaultPageSize = c.App.DefaultPageSize
	}
	if c.App.MaxPageSize > 0 {
		cfg.MaxPageSize = c.App.MaxPageSize
	}
	return cfg
}

// GetMaxValueSize 获取字段值大小上限（字节）
func (c *AppConfig) GetMaxValueSize() int64 {
	return convert.StrTo(c.Field.MaxValueSize).MustToSize(1 << 20)
}

// GetContextTimeout 获取请求上下文超时时间
func (c *AppConfig) GetContextTimeout() time.Duration {
	return time.Duration(c.App.DefaultContextTimeout) * time.Second
}

// GetDatabaseConfig 转换为 dao 层的数据库配置
func (c *AppConfig) GetDatabaseConfig() (dao.DatabaseConfig, error) {
	var dc dao.DatabaseConfig
	if err := convert.StructAssign(&c.Database, &dc); err != nil {
		return dc, errors.Wrap(err, "convert database config failed")
	}
	dc.RunMode = c.Server.RunMode
	return dc, nil
}
