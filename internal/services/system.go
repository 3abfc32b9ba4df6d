package services

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type SystemSnapshot struct {
	CapturedAt        time.Time `json:"capturedAt"`
	UptimeSeconds     int64     `json:"uptimeSeconds"`
	Goroutines        int       `json:"goroutines"`
	ProcessMemoryRSS  int64     `json:"processMemoryRssBytes"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	DiskTotalBytes    int64     `json:"diskTotalBytes"`
	DiskUsedBytes     int64     `json:"diskUsedBytes"`
	ProcessCpuLoad    float64   `json:"processCpuLoad"`
	SystemCpuLoad     float64   `json:"systemCpuLoad"`
}

var startedAt = time.Now()

// CaptureSystem takes a point-in-time snapshot of host and process health.
// Individual probe failures degrade to zero values rather than failing the
// whole snapshot.
func CaptureSystem(diskPath string) SystemSnapshot {
	memStat, _ := mem.VirtualMemory()
	diskStat, err := disk.Usage(diskPath)
	if err != nil || diskStat == nil {
		diskStat, _ = disk.Usage("/")
	}

	processRSS := int64(0)
	processCPU := float64(0)
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, _ := proc.MemoryInfo(); info != nil {
			processRSS = int64(info.RSS)
		}
		cpuPerc, _ := proc.CPUPercent()
		processCPU = cpuPerc / 100.0
	}
	sysCPU, _ := cpu.Percent(0, false)
	sysCPUValue := 0.0
	if len(sysCPU) > 0 {
		sysCPUValue = sysCPU[0] / 100.0
	}

	snapshot := SystemSnapshot{
		CapturedAt:       time.Now().UTC(),
		UptimeSeconds:    int64(time.Since(startedAt).Seconds()),
		Goroutines:       runtime.NumGoroutine(),
		ProcessMemoryRSS: processRSS,
		ProcessCpuLoad:   processCPU,
		SystemCpuLoad:    sysCPUValue,
	}
	if memStat != nil {
		snapshot.SystemMemoryTotal = int64(memStat.Total)
		snapshot.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	if diskStat != nil {
		snapshot.DiskTotalBytes = int64(diskStat.Total)
		snapshot.DiskUsedBytes = int64(diskStat.Used)
	}
	return snapshot
}
