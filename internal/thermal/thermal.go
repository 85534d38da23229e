// Package thermal sizes the build's parallel file copy to the host machine.
package thermal

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HardwareInfo contains detected hardware information
type HardwareInfo struct {
	NumCPU         int
	IsDarwin       bool
	IsMacBookAir   bool
	IsAppleSilicon bool
	ModelName      string
	// AvailableMemory is in bytes; zero when it could not be read.
	AvailableMemory uint64
}

const (
	// MaxCopyWorkers caps parallel copies; more only contends on the disk.
	MaxCopyWorkers = 16
	// lowMemory is the free-memory level below which copies are halved.
	lowMemory = 512 << 20
)

// DetectHardware detects the current hardware configuration
func DetectHardware() HardwareInfo {
	info := HardwareInfo{
		NumCPU:   runtime.NumCPU(),
		IsDarwin: runtime.GOOS == "darwin",
	}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.NumCPU = n
	}
	if stats, err := cpu.Info(); err == nil && len(stats) > 0 {
		info.ModelName = strings.TrimSpace(stats[0].ModelName)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.AvailableMemory = vm.Available
	}

	if info.IsDarwin {
		if model := detectMacModel(); model != "" {
			info.ModelName = model
		}
		info.IsMacBookAir = strings.Contains(strings.ToLower(info.ModelName), "macbookair") ||
			strings.Contains(strings.ToLower(info.ModelName), "macbook air")
		info.IsAppleSilicon = runtime.GOARCH == "arm64" ||
			strings.Contains(strings.ToLower(info.ModelName), "apple")
	}

	return info
}

// detectMacModel returns the Mac model identifier
func detectMacModel() string {
	output, err := exec.Command("sysctl", "-n", "hw.model").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// OptimalConcurrency returns how many files the build copies at once. A
// positive configured value wins.
func OptimalConcurrency(hw HardwareInfo, configured int) int {
	if configured > 0 {
		return configured
	}

	// Copies mostly wait on the disk, so allow two per core.
	optimal := hw.NumCPU * 2

	// MacBook Air has passive cooling
	if hw.IsMacBookAir {
		optimal = hw.NumCPU
	}
	if hw.AvailableMemory > 0 && hw.AvailableMemory < lowMemory {
		optimal /= 2
	}

	if optimal < 1 {
		optimal = 1
	}
	if optimal > MaxCopyWorkers {
		optimal = MaxCopyWorkers
	}
	return optimal
}

// FormatHardwareInfo returns a human-readable hardware description
func FormatHardwareInfo(hw HardwareInfo) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%d cores", hw.NumCPU))

	if hw.ModelName != "" {
		parts = append(parts, hw.ModelName)
	}
	if hw.IsDarwin && hw.IsAppleSilicon {
		parts = append(parts, "Apple Silicon")
	}
	if !hw.IsDarwin {
		parts = append(parts, runtime.GOOS)
	}
	if hw.AvailableMemory > 0 {
		parts = append(parts, fmt.Sprintf("%d MiB free", hw.AvailableMemory>>20))
	}

	return strings.Join(parts, ", ")
}
