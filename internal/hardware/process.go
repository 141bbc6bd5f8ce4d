package hardware

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessUsage is a one-shot resource reading for a single process.
type ProcessUsage struct {
	PID        int32   `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
	MemoryRSS  uint64  `json:"memory_rss"`
	NumThreads int32   `json:"num_threads,omitempty"`
	NumFDs     int32   `json:"num_fds,omitempty"`
}

// SampleProcess reads CPU and memory usage of pid. CPU and thread counts are
// best-effort; missing memory info is an error.
func SampleProcess(ctx context.Context, pid int) (ProcessUsage, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return ProcessUsage{}, fmt.Errorf("failed to create process handle: %w", err)
	}
	memInfo, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return ProcessUsage{}, fmt.Errorf("failed to get memory info: %w", err)
	}
	u := ProcessUsage{
		PID:       proc.Pid,
		MemoryMB:  float64(memInfo.RSS) / 1024 / 1024,
		MemoryRSS: memInfo.RSS,
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		u.CPUPercent = pct
	}
	if n, err := proc.NumThreadsWithContext(ctx); err == nil {
		u.NumThreads = n
	}
	if runtime.GOOS != "windows" {
		if n, err := proc.NumFDsWithContext(ctx); err == nil {
			u.NumFDs = n
		}
	}
	return u, nil
}
