package hardware

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	out  string
	err  error
	name string
	args []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name, s.args = name, args
	return []byte(s.out), nil, s.err
}

func TestParseGPU(t *testing.T) {
	g := ParseGPU([]byte("NVIDIA GeForce RTX 4090, 24564, 550.54.14\n"))
	assert.True(t, g.Detected)
	assert.Equal(t, "NVIDIA GeForce RTX 4090", g.Name)
	assert.Equal(t, uint64(24564), g.VRAMMB)
	assert.Equal(t, "550.54.14", g.DriverVersion)
}

func TestParseGPUFirstRowOnly(t *testing.T) {
	g := ParseGPU([]byte("\nRTX A4000, 16376, 535.1\nRTX A2000, 6138, 535.1\n"))
	assert.Equal(t, "RTX A4000", g.Name)
	assert.Equal(t, uint64(16376), g.VRAMMB)
}

func TestParseGPUMalformed(t *testing.T) {
	for _, in := range []string{"", "garbage", "a, b"} {
		g := ParseGPU([]byte(in))
		assert.False(t, g.Detected, in)
		assert.Equal(t, "No NVIDIA GPU detected", g.Name)
		assert.Equal(t, "N/A", g.DriverVersion)
		assert.Zero(t, g.VRAMMB)
	}
}

func TestGPUQueriesNvidiaSMI(t *testing.T) {
	r := &stubRunner{out: "Tesla T4, 15360, 470.82.01"}
	s := NewSampler(nil)
	s.Runner = r

	g := s.GPU(context.Background())
	assert.True(t, g.Detected)
	assert.Equal(t, "nvidia-smi", r.name)
	assert.Equal(t, nvidiaArgs, r.args)
}

func TestGPUMissingBinary(t *testing.T) {
	s := NewSampler(nil)
	s.Runner = &stubRunner{err: errors.New("exec: \"nvidia-smi\": executable file not found in $PATH")}
	assert.Equal(t, noGPU(), s.GPU(context.Background()))
}

func TestRecommendTiers(t *testing.T) {
	tests := []struct {
		vram    uint64
		primary string
		alt     string
	}{
		{24000, "qwen2.5:32b", "deepseek-r1:14b"},
		{23999, "qwen2.5:14b", "llama3.1:8b"},
		{8000, "qwen2.5:14b", "llama3.1:8b"},
		{7999, "qwen2.5:7b", "phi3:mini"},
		{4000, "qwen2.5:7b", "phi3:mini"},
		{3999, "qwen2.5:3b", "tinyllama"},
		{0, "qwen2.5:3b", "tinyllama"},
	}
	for _, tt := range tests {
		recs := Recommend(tt.vram)
		require.Len(t, recs, 2)
		assert.Equal(t, tt.primary, recs[0].ModelName, "vram %d", tt.vram)
		assert.True(t, recs[0].Recommended)
		assert.Equal(t, tt.alt, recs[1].ModelName, "vram %d", tt.vram)
		assert.False(t, recs[1].Recommended)
	}
}

func TestDiskInfo(t *testing.T) {
	d := diskInfo(100<<30, 25<<30)
	assert.InDelta(t, 100.0, d.TotalGB, 0.001)
	assert.InDelta(t, 75.0, d.UsedGB, 0.001)
	assert.InDelta(t, 25.0, d.AvailableGB, 0.001)
	assert.InDelta(t, 75.0, d.UsagePercent, 0.001)

	assert.Zero(t, diskInfo(0, 0).UsagePercent)
}

func TestSnapshotLocalHost(t *testing.T) {
	s := NewSampler(nil)
	s.Runner = &stubRunner{err: errors.New("no gpu")}
	s.CPUInterval = 0

	snap := s.Snapshot(context.Background())
	assert.False(t, snap.GPU.Detected)
	assert.Greater(t, snap.CPU.Threads, 0)
	assert.Greater(t, snap.Memory.TotalMB, uint64(0))
	assert.NotEmpty(t, snap.Hostname)
	assert.NotEmpty(t, snap.OS)
}

func TestSampleProcessSelf(t *testing.T) {
	u, err := SampleProcess(context.Background(), os.Getpid())
	require.NoError(t, err)
	assert.Equal(t, int32(os.Getpid()), u.PID)
	assert.Greater(t, u.MemoryRSS, uint64(0))
	assert.Greater(t, u.MemoryMB, 0.0)
}
