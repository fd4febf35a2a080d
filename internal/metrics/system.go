package metrics

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is a point-in-time view of the host and process.
type SystemStats struct {
	Hostname      string
	Platform      string
	CPUPercent    float64
	MemUsedMB     uint64
	MemTotalMB    uint64
	MemPercent    float64
	Goroutines    int
	HeapAllocMB   uint64
	HostUptimeSec uint64
}

// CollectSystemStats gathers host stats. Individual probe failures leave
// their fields zeroed; nothing here is load-bearing.
func CollectSystemStats() SystemStats {
	var stats SystemStats

	if info, err := host.Info(); err == nil {
		stats.Hostname = info.Hostname
		stats.Platform = info.Platform
		stats.HostUptimeSec = info.Uptime
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemUsedMB = vm.Used / 1024 / 1024
		stats.MemTotalMB = vm.Total / 1024 / 1024
		stats.MemPercent = vm.UsedPercent
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats.HeapAllocMB = ms.HeapAlloc / 1024 / 1024
	stats.Goroutines = runtime.NumGoroutine()

	return stats
}
