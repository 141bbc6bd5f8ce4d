//go:build !windows

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	ok    atomic.Bool
	calls atomic.Int32
}

func (f *fakeProber) Probe(ctx context.Context, endpoint string, timeout time.Duration) bool {
	return f.Check(ctx, endpoint, timeout) == nil
}

func (f *fakeProber) Check(context.Context, string, time.Duration) error {
	f.calls.Add(1)
	if f.ok.Load() {
		return nil
	}
	return errors.New("down")
}

func newTestSupervisor(t *testing.T, command string, mod func(*Config)) *Supervisor {
	t.Helper()
	cfg := Config{
		Name:        "gateway",
		Command:     command,
		WorkDir:     t.TempDir(),
		HealthURL:   "http://127.0.0.1:1/health",
		StopTimeout: 2 * time.Second,
		KillTimeout: 2 * time.Second,
		Prober:      &fakeProber{},
	}
	if mod != nil {
		mod(&cfg)
	}
	s := New(cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func containsLine(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func TestStartStopLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestSupervisor(t, "sleep 30", nil)

	require.NoError(t, s.Start(ctx))
	st := s.Status()
	assert.Equal(t, StateStarting, st.State)
	assert.Greater(t, st.PID, 0)
	assert.False(t, st.StartedAt.IsZero())

	err := s.Start(ctx)
	require.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, "gateway is already running", err.Error())

	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, StateStopped, s.Status().State)

	err = s.Stop(ctx)
	require.ErrorIs(t, err, ErrNotRunning)
	assert.Equal(t, "gateway is not running", err.Error())

	logs := s.Logs()
	assert.True(t, containsLine(logs, "[gateway] started (pid "))
	assert.True(t, containsLine(logs, "[gateway] stopped"))
}

func TestStopWithoutStart(t *testing.T) {
	s := newTestSupervisor(t, "sleep 30", nil)
	require.ErrorIs(t, s.Stop(context.Background()), ErrNotRunning)
	assert.Empty(t, s.Logs())
}

func TestIsRunningSkipsProbeWithoutHandle(t *testing.T) {
	fp := &fakeProber{}
	fp.ok.Store(true)
	s := newTestSupervisor(t, "sleep 30", func(c *Config) { c.Prober = fp })

	assert.False(t, s.IsRunning(context.Background()))
	assert.Equal(t, int32(0), fp.calls.Load())
}

func TestIsRunningRequiresHealthyEndpoint(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx := context.Background()
	s := newTestSupervisor(t, "sleep 30", func(c *Config) {
		c.HealthURL = srv.URL + "/health"
		c.Prober = nil
	})
	require.NoError(t, s.Start(ctx))

	assert.False(t, s.IsRunning(ctx), "unhealthy endpoint")
	assert.Equal(t, StateStarting, s.Status().State)

	healthy.Store(true)
	assert.True(t, s.IsRunning(ctx))
	assert.Equal(t, StateRunning, s.Status().State)

	healthy.Store(false)
	assert.False(t, s.IsRunning(ctx), "endpoint went down")
	assert.Equal(t, StateStarting, s.Status().State)

	healthy.Store(true)
	assert.True(t, s.IsRunning(ctx))
	assert.Equal(t, StateRunning, s.Status().State)

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning(ctx))
}

func TestCapturesStdoutAndStderr(t *testing.T) {
	s := newTestSupervisor(t, `sh -c 'echo hello; echo oops 1>&2; sleep 30'`, nil)
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool {
		logs := s.Logs()
		return containsLine(logs, "hello") && containsLine(logs, "oops")
	}, 3*time.Second, 20*time.Millisecond)
	assert.True(t, strings.HasPrefix(s.Logs()[0], "[gateway] started (pid "))
}

func TestLogsSurviveStop(t *testing.T) {
	ctx := context.Background()
	s := newTestSupervisor(t, `sh -c 'echo kept; sleep 30'`, nil)
	require.NoError(t, s.Start(ctx))
	require.Eventually(t, func() bool { return containsLine(s.Logs(), "kept") }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(ctx))
	assert.True(t, containsLine(s.Logs(), "kept"))
}

func TestStopEscalatesToKill(t *testing.T) {
	ctx := context.Background()
	s := newTestSupervisor(t, `sh -c 'trap "" TERM; echo ready; sleep 30'`, func(c *Config) {
		c.StopTimeout = 200 * time.Millisecond
		c.KillTimeout = 2 * time.Second
	})
	require.NoError(t, s.Start(ctx))
	require.Eventually(t, func() bool { return containsLine(s.Logs(), "ready") }, 3*time.Second, 20*time.Millisecond)

	begin := time.Now()
	require.NoError(t, s.Stop(ctx))
	elapsed := time.Since(begin)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 2200*time.Millisecond+waitDelay)
	assert.Equal(t, StateStopped, s.Status().State)
}

func TestStopContextCancelKillsImmediately(t *testing.T) {
	s := newTestSupervisor(t, `sh -c 'trap "" TERM; echo ready; sleep 30'`, func(c *Config) {
		c.StopTimeout = time.Minute
	})
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return containsLine(s.Logs(), "ready") }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	begin := time.Now()
	require.NoError(t, s.Stop(ctx))
	assert.Less(t, time.Since(begin), 5*time.Second)
}

func TestStartAfterExternalExit(t *testing.T) {
	ctx := context.Background()
	s := newTestSupervisor(t, `sh -c 'exit 3'`, nil)
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool { return s.Status().State == StateStopped }, 3*time.Second, 20*time.Millisecond)
	assert.True(t, containsLine(s.Logs(), "[gateway] exited: exit status 3"))
	assert.Zero(t, s.Status().PID)

	require.ErrorIs(t, s.Stop(ctx), ErrNotRunning)
	require.NoError(t, s.Start(ctx), "a dead child must not block a new start")
}

func TestConcurrentStartsOneWins(t *testing.T) {
	s := newTestSupervisor(t, "sleep 30", nil)

	const n = 10
	var wg sync.WaitGroup
	var ok, already atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Start(context.Background())
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyRunning):
				already.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(n-1), already.Load())
}

func TestSpawnFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newTestSupervisor(t, "/nonexistent/alfred-gateway-binary", nil)

	err := s.Start(ctx)
	var se *SpawnError
	require.ErrorAs(t, err, &se)
	assert.NotEmpty(t, se.Reason)
	assert.Equal(t, err, s.LastStartError())

	st := s.Status()
	assert.Equal(t, StateStopped, st.State)
	assert.Contains(t, st.LastError, "failed to start")
	assert.False(t, s.IsRunning(ctx))
	require.ErrorIs(t, s.Stop(ctx), ErrNotRunning)

	ok := New(Config{Command: "sleep 30", WorkDir: dir, Prober: &fakeProber{}})
	defer func() { _ = ok.Shutdown(ctx) }()
	require.NoError(t, ok.Start(ctx))
	assert.NoError(t, ok.LastStartError())
}

func TestSuccessfulStartClearsLastError(t *testing.T) {
	ctx := context.Background()
	s := newTestSupervisor(t, "sleep 30", func(c *Config) { c.WorkDir = "/nonexistent/dir/for/alfred" })
	require.Error(t, s.Start(ctx))
	require.Error(t, s.LastStartError())

	s.cfg.WorkDir = t.TempDir()
	require.NoError(t, s.Start(ctx))
	assert.NoError(t, s.LastStartError())
	assert.Empty(t, s.Status().LastError)
}

func TestShutdownIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestSupervisor(t, "sleep 30", nil)
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Shutdown(ctx))
}

func TestChildSeesEnvironment(t *testing.T) {
	s := newTestSupervisor(t, `sh -c 'echo home=$ALFRED_HOME; sleep 30'`, func(c *Config) {
		c.Env = append(os.Environ(), "ALFRED_HOME=/tmp/alfred-test")
	})
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return containsLine(s.Logs(), "home=/tmp/alfred-test")
	}, 3*time.Second, 20*time.Millisecond)
}
