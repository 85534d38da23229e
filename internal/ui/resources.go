package ui

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceStats is a host resource sample.
type ResourceStats struct {
	CPUPercent  float64
	MemoryUsed  uint64
	MemoryTotal uint64
	MemPercent  float64
}

// GetResourceStats fetches current system resource statistics
func GetResourceStats() ResourceStats {
	var stats ResourceStats

	cpuPercent, err := cpu.Percent(0, false)
	if err == nil && len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	memInfo, err := mem.VirtualMemory()
	if err == nil {
		stats.MemoryUsed = memInfo.Used
		stats.MemoryTotal = memInfo.Total
		stats.MemPercent = memInfo.UsedPercent
	}

	return stats
}

// ProcessStats is a resource sample of one server process.
type ProcessStats struct {
	Alive      bool
	CPUPercent float64
	RSS        uint64
}

// GetProcessStats samples pid. A process that no longer exists is reported
// as not alive.
func GetProcessStats(pid int) ProcessStats {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return ProcessStats{}
	}
	stats := ProcessStats{Alive: true}
	if running, err := p.IsRunning(); err == nil && !running {
		return ProcessStats{}
	}
	if pct, err := p.CPUPercent(); err == nil {
		stats.CPUPercent = pct
	}
	if mi, err := p.MemoryInfo(); err == nil && mi != nil {
		stats.RSS = mi.RSS
	}
	return stats
}

// FormatBytes formats bytes into a human-readable string
func FormatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// HostSummary renders a one-line host load summary.
func HostSummary(s ResourceStats) string {
	return dimStyle.Render(fmt.Sprintf("host cpu %.0f%%  mem %s / %s (%.0f%%)",
		s.CPUPercent, FormatBytes(s.MemoryUsed), FormatBytes(s.MemoryTotal), s.MemPercent))
}
