package api_router

import (
	"os"
	"runtime"
	"time"

	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/internal/dto"
	pkgapp "github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// SystemHandler 主机与运行时信息处理器，挂在私有端口
type SystemHandler struct {
	*Handler
}

// NewSystemHandler 创建 SystemHandler 实例
func NewSystemHandler(a *app.App) *SystemHandler {
	return &SystemHandler{Handler: NewHandler(a)}
}

// Info 获取主机、进程与队列状态
// 采集失败的项保持零值
func (h *SystemHandler) Info(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	data := dto.SystemInfoDTO{
		StartTime: h.App.StartTime,
		Uptime:    time.Since(h.App.StartTime).Seconds(),
		Runtime: dto.RuntimeInfoDTO{
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     m.Alloc,
			MemSys:       m.Sys,
			HeapInuse:    m.HeapInuse,
			NumGC:        m.NumGC,
		},
	}

	// CPU
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		data.CPU.ModelName = infos[0].ModelName
	}
	data.CPU.LogicalCores, _ = cpu.CountsWithContext(ctx, true)
	data.CPU.Percent, _ = cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if avg, err := load.AvgWithContext(ctx); err == nil {
		data.CPU.Load1, data.CPU.Load5, data.CPU.Load15 = avg.Load1, avg.Load5, avg.Load15
	}

	// Memory
	if vMem, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		data.Memory = dto.MemoryInfoDTO{
			Total:       vMem.Total,
			Available:   vMem.Available,
			Used:        vMem.Used,
			UsedPercent: vMem.UsedPercent,
		}
	}

	// Host
	if hInfo, err := host.InfoWithContext(ctx); err == nil {
		data.Host = dto.HostInfoDTO{
			Hostname:      hInfo.Hostname,
			OS:            hInfo.OS,
			Platform:      hInfo.Platform,
			KernelVersion: hInfo.KernelVersion,
			Uptime:        hInfo.Uptime,
		}
	}

	// Process
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		data.Process.PID = p.Pid
		data.Process.CPUPercent, _ = p.CPUPercentWithContext(ctx)
		data.Process.MemoryPercent, _ = p.MemoryPercentWithContext(ctx)
	}

	// 每次合并都会在临时目录写文件
	tempDir := h.App.Config().Merge.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if usage, err := disk.UsageWithContext(ctx, tempDir); err == nil {
		data.TempDisk = &dto.DiskUsageInfoDTO{
			Path:        tempDir,
			Total:       usage.Total,
			Free:        usage.Free,
			UsedPercent: usage.UsedPercent,
		}
	}

	wq := h.App.WriteQueueManager().GetMetrics()
	wp := h.App.WorkerPool().GetMetrics()
	data.Queues = dto.QueueInfoDTO{
		WriteQueues:       wq.ActiveQueues,
		WorkerPoolActive:  wp.ActiveCount,
		WorkerPoolQueued:  wp.QueuedCount,
		WorkerPoolWorkers: wp.MaxWorkers,
	}

	response.ToResponse(code.Success.WithData(data))
}
