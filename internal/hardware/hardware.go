// Package hardware takes read-only snapshots of the host for onboarding and
// model selection.
package hardware

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/archon/alfredd/internal/detector"
)

type GPUInfo struct {
	Name          string `json:"name"`
	VRAMMB        uint64 `json:"vram_mb"`
	DriverVersion string `json:"driver_version"`
	Detected      bool   `json:"detected"`
}

type CPUInfo struct {
	Name         string  `json:"name"`
	Cores        int     `json:"cores"`
	Threads      int     `json:"threads"`
	UsagePercent float64 `json:"usage_percent"`
}

type MemoryInfo struct {
	TotalMB      uint64  `json:"total_mb"`
	UsedMB       uint64  `json:"used_mb"`
	AvailableMB  uint64  `json:"available_mb"`
	UsagePercent float64 `json:"usage_percent"`
}

type DiskInfo struct {
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	AvailableGB  float64 `json:"available_gb"`
	UsagePercent float64 `json:"usage_percent"`
}

type Snapshot struct {
	GPU      GPUInfo    `json:"gpu"`
	CPU      CPUInfo    `json:"cpu"`
	Memory   MemoryInfo `json:"memory"`
	Disk     DiskInfo   `json:"disk"`
	OS       string     `json:"os"`
	Hostname string     `json:"hostname"`
}

var nvidiaArgs = []string{"--query-gpu=name,memory.total,driver_version", "--format=csv,noheader,nounits"}

// Sampler collects snapshots. Runner executes nvidia-smi.
type Sampler struct {
	Runner      detector.Runner
	CPUInterval time.Duration
	Logger      *slog.Logger
}

func NewSampler(logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{Runner: detector.ExecRunner{}, CPUInterval: 200 * time.Millisecond, Logger: logger}
}

// Snapshot gathers every section. Failed sections are left at their zero
// value and logged at debug level.
func (s *Sampler) Snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{
		GPU:      s.GPU(ctx),
		CPU:      s.cpu(ctx),
		Memory:   s.memory(ctx),
		Disk:     s.disk(ctx),
		OS:       "Unknown",
		Hostname: "Unknown",
	}
	if hi, err := host.InfoWithContext(ctx); err == nil {
		if hi.Hostname != "" {
			snap.Hostname = hi.Hostname
		}
		name := hi.Platform
		if name == "" {
			name = hi.OS
		}
		snap.OS = strings.TrimSpace(name + " " + hi.PlatformVersion)
	} else {
		s.Logger.Debug("host info unavailable", "error", err)
	}
	return snap
}

// GPU queries nvidia-smi; any failure yields the "not detected" placeholder.
func (s *Sampler) GPU(ctx context.Context) GPUInfo {
	out, _, err := s.Runner.Run(ctx, "nvidia-smi", nvidiaArgs...)
	if err != nil {
		s.Logger.Debug("nvidia-smi unavailable", "error", err)
		return noGPU()
	}
	return ParseGPU(out)
}

// ParseGPU reads the first "name, memory, driver" row of nvidia-smi CSV output.
func ParseGPU(out []byte) GPUInfo {
	line := detector.FirstLine(out)
	parts := strings.Split(line, ", ")
	if len(parts) < 3 {
		return noGPU()
	}
	vram, _ := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	return GPUInfo{
		Name:          strings.TrimSpace(parts[0]),
		VRAMMB:        vram,
		DriverVersion: strings.TrimSpace(parts[2]),
		Detected:      true,
	}
}

func noGPU() GPUInfo {
	return GPUInfo{Name: "No NVIDIA GPU detected", DriverVersion: "N/A"}
}

func (s *Sampler) cpu(ctx context.Context) CPUInfo {
	info := CPUInfo{Name: "Unknown"}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		info.Name = strings.TrimSpace(infos[0].ModelName)
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.Cores = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.Threads = n
	}
	if pct, err := cpu.PercentWithContext(ctx, s.CPUInterval, false); err == nil && len(pct) > 0 {
		info.UsagePercent = pct[0]
	} else if err != nil {
		s.Logger.Debug("cpu usage unavailable", "error", err)
	}
	return info
}

func (s *Sampler) memory(ctx context.Context) MemoryInfo {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		s.Logger.Debug("memory info unavailable", "error", err)
		return MemoryInfo{}
	}
	m := MemoryInfo{
		TotalMB:     vm.Total / 1024 / 1024,
		UsedMB:      vm.Used / 1024 / 1024,
		AvailableMB: vm.Available / 1024 / 1024,
	}
	if m.TotalMB > 0 {
		m.UsagePercent = float64(m.UsedMB) / float64(m.TotalMB) * 100
	}
	return m
}

func (s *Sampler) disk(ctx context.Context) DiskInfo {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		s.Logger.Debug("disk partitions unavailable", "error", err)
		return DiskInfo{}
	}
	var total, free uint64
	seen := make(map[string]bool)
	for _, p := range parts {
		if seen[p.Device] {
			continue
		}
		seen[p.Device] = true
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		total += u.Total
		free += u.Free
	}
	return diskInfo(total, free)
}

func diskInfo(total, free uint64) DiskInfo {
	const gib = 1 << 30
	d := DiskInfo{
		TotalGB:     float64(total) / gib,
		AvailableGB: float64(free) / gib,
	}
	d.UsedGB = d.TotalGB - d.AvailableGB
	if d.TotalGB > 0 {
		d.UsagePercent = d.UsedGB / d.TotalGB * 100
	}
	return d
}
