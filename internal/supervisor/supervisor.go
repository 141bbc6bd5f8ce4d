// Package supervisor owns at most one long-lived child process: it spawns it,
// captures its output, tracks liveness and stops it on request.
//
// Lock hierarchy (to prevent deadlocks):
//  1. Supervisor.mu, held for the whole of Start, Stop, IsRunning and Status
//  2. LogBuffer.mu, a leaf; output pumps take only this lock
//
// The waiter goroutine that reaps the child takes neither lock.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/archon/alfredd/internal/metrics"
	"github.com/archon/alfredd/internal/probe"
)

const (
	DefaultStopTimeout = 5 * time.Second
	DefaultKillTimeout = 2 * time.Second
	// waitDelay bounds pipe draining when a grandchild keeps stdout open.
	waitDelay = 500 * time.Millisecond
)

// Config describes the supervised command.
type Config struct {
	Name      string   // used in log markers; default "gateway"
	Command   string   // command line, split on whitespace or run through the shell
	WorkDir   string   // optional
	Env       []string // full child environment; nil inherits os.Environ()
	HealthURL string   // probed by IsRunning

	ProbeTimeout time.Duration
	StopTimeout  time.Duration
	KillTimeout  time.Duration

	LogLines int       // ring capacity, default DefaultLogLines
	Mirror   io.Writer // optional copy of every captured line (e.g. a rotating file)

	Prober probe.Prober
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "gateway"
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = probe.DefaultTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.KillTimeout <= 0 {
		c.KillTimeout = DefaultKillTimeout
	}
	if c.Prober == nil {
		c.Prober = probe.New()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// handle is a started child. err is written by the waiter before done is closed.
type handle struct {
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time
	done      chan struct{}
	err       error
}

func (h *handle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Supervisor manages a single child process. All methods are safe for
// concurrent use.
type Supervisor struct {
	cfg  Config
	logs *LogBuffer
	log  *slog.Logger

	mu      sync.Mutex
	h       *handle
	state   State
	lastErr error
}

// New returns a stopped supervisor for cfg.
func New(cfg Config) *Supervisor {
	cfg.applyDefaults()
	return &Supervisor{
		cfg:  cfg,
		logs: NewLogBuffer(cfg.LogLines, cfg.Mirror),
		log:  cfg.Logger.With("service", cfg.Name),
	}
}

// Name returns the configured process name.
func (s *Supervisor) Name() string { return s.cfg.Name }

// Start spawns the configured command. It returns ErrAlreadyRunning while a
// live child exists and *SpawnError when the OS refuses to create it.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked()
	if s.h != nil {
		return fmt.Errorf("%s is %w", s.cfg.Name, ErrAlreadyRunning)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = StateStarting
	cmd := buildCommand(s.cfg.Command)
	if cmd == nil {
		return s.spawnFailedLocked(&SpawnError{Reason: "empty command"})
	}
	cmd.Dir = s.cfg.WorkDir
	cmd.Env = s.cfg.Env
	ready := make(chan struct{})
	defer close(ready)
	stdout, stderr := s.logs.writer(ready), s.logs.writer(ready)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return s.spawnFailedLocked(&SpawnError{Reason: err.Error(), Err: err})
	}

	h := &handle{cmd: cmd, pid: cmd.Process.Pid, startedAt: time.Now(), done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		stdout.Flush()
		stderr.Flush()
		h.err = err
		close(h.done)
	}()

	s.h = h
	s.lastErr = nil
	s.logs.Append(fmt.Sprintf("[%s] started (pid %d)", s.cfg.Name, h.pid))
	s.log.Info("process started", "pid", h.pid, "command", s.cfg.Command)
	metrics.IncStart(s.cfg.Name)
	return nil
}

func (s *Supervisor) spawnFailedLocked(err *SpawnError) error {
	s.state = StateStopped
	s.lastErr = err
	s.logs.Append(fmt.Sprintf("[%s] %v", s.cfg.Name, err))
	s.log.Error("process spawn failed", "error", err)
	metrics.IncStartFailure(s.cfg.Name)
	return err
}

// Stop sends SIGTERM to the child's process group, waits up to StopTimeout,
// then escalates to SIGKILL and waits up to KillTimeout. Cancelling ctx
// skips straight to SIGKILL. On *KillError the handle is kept.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked()
	h := s.h
	if h == nil {
		return fmt.Errorf("%s is %w", s.cfg.Name, ErrNotRunning)
	}

	if err := terminateGroup(h.cmd.Process); err != nil {
		return &KillError{Reason: fmt.Sprintf("SIGTERM pid %d: %v", h.pid, err), Err: err}
	}

	killed := false
	term := time.NewTimer(s.cfg.StopTimeout)
	defer term.Stop()
	select {
	case <-h.done:
	case <-term.C:
		killed = true
	case <-ctx.Done():
		killed = true
	}

	if killed {
		s.log.Warn("process ignored SIGTERM, killing", "pid", h.pid)
		if err := killGroup(h.cmd.Process); err != nil {
			return &KillError{Reason: fmt.Sprintf("SIGKILL pid %d: %v", h.pid, err), Err: err}
		}
		kill := time.NewTimer(s.cfg.KillTimeout)
		defer kill.Stop()
		select {
		case <-h.done:
		case <-kill.C:
			return &KillError{Reason: fmt.Sprintf("pid %d still alive after SIGKILL", h.pid)}
		}
		metrics.IncKill(s.cfg.Name)
	}

	s.h = nil
	s.state = StateStopped
	s.logs.Append(fmt.Sprintf("[%s] stopped", s.cfg.Name))
	s.log.Info("process stopped", "pid", h.pid, "killed", killed)
	metrics.IncStop(s.cfg.Name)
	return nil
}

// IsRunning reports whether the child is alive and its health endpoint
// answers. Without a handle it returns false without touching the network.
// Each health check moves the state between starting and running.
func (s *Supervisor) IsRunning(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked()
	if s.h == nil {
		return false
	}
	if !s.cfg.Prober.Probe(ctx, s.cfg.HealthURL, s.cfg.ProbeTimeout) {
		// alive but unhealthy
		s.state = StateStarting
		return false
	}
	s.state = StateRunning
	return true
}

// Logs returns a copy of the captured output, oldest first.
func (s *Supervisor) Logs() []string { return s.logs.Snapshot() }

// LastStartError returns the most recent spawn failure, cleared by a
// successful Start.
func (s *Supervisor) LastStartError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Status returns a snapshot without probing.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked()
	st := Status{Name: s.cfg.Name, State: s.state}
	if s.h != nil {
		st.PID = s.h.pid
		st.StartedAt = s.h.startedAt
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Shutdown stops the child if one is running. Owners must call it before
// exiting so the child does not outlive the supervisor.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	err := s.Stop(ctx)
	if errors.Is(err, ErrNotRunning) {
		return nil
	}
	return err
}

// reapLocked clears a handle whose process has already exited.
func (s *Supervisor) reapLocked() {
	h := s.h
	if h == nil || !h.exited() {
		return
	}
	s.h = nil
	s.state = StateStopped
	reason := "exit status 0"
	if h.err != nil {
		reason = h.err.Error()
	}
	s.logs.Append(fmt.Sprintf("[%s] exited: %s", s.cfg.Name, strings.TrimSpace(reason)))
	s.log.Warn("process exited", "pid", h.pid, "error", h.err)
}
