package dto

import "time"

// VersionDTO Server version information
// VersionDTO 服务端版本信息
type VersionDTO struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
	Go        string `json:"go"`
	StartTime string `json:"startTime"`
}

// HealthDTO Health check result
// HealthDTO 健康检查结果
type HealthDTO struct {
	Status   string   `json:"status"`   // "healthy" 或 "unhealthy"
	Version  string   `json:"version"`  // 服务版本号
	Uptime   float64  `json:"uptime"`   // 运行时间（秒）
	Database string   `json:"database"` // "connected" 或 "error"
	Tools    string   `json:"tools"`    // "available" 或 "missing"
	Missing  []string `json:"missing,omitempty"`
}

// SystemInfoDTO Host and runtime information
// SystemInfoDTO 主机与运行时信息
type SystemInfoDTO struct {
	StartTime time.Time         `json:"startTime"`
	Uptime    float64           `json:"uptime"`
	Runtime   RuntimeInfoDTO    `json:"runtime"`
	CPU       CPUInfoDTO        `json:"cpu"`
	Memory    MemoryInfoDTO     `json:"memory"`
	Host      HostInfoDTO       `json:"host"`
	Process   ProcessInfoDTO    `json:"process"`
	Queues    QueueInfoDTO      `json:"queues"`
	TempDisk  *DiskUsageInfoDTO `json:"tempDisk,omitempty"`
}

type RuntimeInfoDTO struct {
	NumGoroutine int    `json:"numGoroutine"`
	MemAlloc     uint64 `json:"memAlloc"`
	MemSys       uint64 `json:"memSys"`
	HeapInuse    uint64 `json:"heapInuse"`
	NumGC        uint32 `json:"numGc"`
}

type CPUInfoDTO struct {
	ModelName    string    `json:"modelName"`
	LogicalCores int       `json:"logicalCores"`
	Percent      []float64 `json:"percent"`
	Load1        float64   `json:"load1"`
	Load5        float64   `json:"load5"`
	Load15       float64   `json:"load15"`
}

type MemoryInfoDTO struct {
	Total       uint64  `json:"total"`
	Available   uint64  `json:"available"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`
}

type HostInfoDTO struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernelVersion"`
	Uptime        uint64 `json:"uptime"`
}

type ProcessInfoDTO struct {
	PID           int32   `json:"pid"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float32 `json:"memoryPercent"`
}

// QueueInfoDTO 写队列与任务池状态
type QueueInfoDTO struct {
	WriteQueues       int   `json:"writeQueues"`
	WorkerPoolActive  int64 `json:"workerPoolActive"`
	WorkerPoolQueued  int   `json:"workerPoolQueued"`
	WorkerPoolWorkers int   `json:"workerPoolWorkers"`
}

// DiskUsageInfoDTO 文本工具临时目录所在磁盘的用量
type DiskUsageInfoDTO struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}
