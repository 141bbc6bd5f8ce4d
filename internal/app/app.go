// Package app wires the supervisor, aggregator and auxiliary clients together
// and exposes them as typed commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/archon/alfredd/internal/config"
	"github.com/archon/alfredd/internal/detector"
	"github.com/archon/alfredd/internal/docker"
	"github.com/archon/alfredd/internal/env"
	"github.com/archon/alfredd/internal/gateway"
	"github.com/archon/alfredd/internal/hardware"
	"github.com/archon/alfredd/internal/logger"
	"github.com/archon/alfredd/internal/metrics"
	"github.com/archon/alfredd/internal/ollama"
	"github.com/archon/alfredd/internal/probe"
	"github.com/archon/alfredd/internal/services"
	"github.com/archon/alfredd/internal/supervisor"
	"github.com/archon/alfredd/internal/updater"
)

type Options struct {
	Home   string
	Config config.Config
	Logger *slog.Logger
	// Prober overrides the health prober used by the supervisor and aggregator.
	Prober probe.Prober
	// Runner overrides CLI execution for docker and nvidia-smi.
	Runner detector.Runner
}

// App owns the supervised gateway. Close must be called before exit.
type App struct {
	home string
	cfg  config.Config
	log  *slog.Logger

	sup      *supervisor.Supervisor
	api      *gateway.Client
	agg      *services.Aggregator
	docker   *docker.Client
	ollama   *ollama.Client
	updater  *updater.Checker
	hardware *hardware.Sampler
	logFile  io.Closer
}

// New builds an App. The gateway is not started; see Bootstrap.
func New(opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Home == "" {
		opts.Home = config.AlfredHome()
	}
	cfg := opts.Config
	log := opts.Logger

	prober := opts.Prober
	if prober == nil {
		hp := probe.New()
		hp.OnResult = func(_ string, err error) { metrics.ObserveProbe(ProbeResult(err)) }
		prober = hp
	}

	extra, err := config.GatewayEnv(opts.Home)
	if err != nil {
		return nil, err
	}

	mirror, err := logger.FileConfig{Path: cfg.Gateway.LogFile}.Writer()
	if err != nil {
		return nil, fmt.Errorf("gateway log file: %w", err)
	}

	a := &App{home: opts.Home, cfg: cfg, log: log}
	childEnv := env.Compose(env.FromOS(), extra)
	supCfg := supervisor.Config{
		Name:         "gateway",
		Command:      env.Expand(cfg.GatewayCommand(opts.Home), env.Parse(childEnv)),
		WorkDir:      opts.Home,
		Env:          childEnv,
		HealthURL:    cfg.GatewayHealthURL(),
		ProbeTimeout: cfg.Gateway.ProbeTimeout,
		StopTimeout:  cfg.Gateway.StopTimeout,
		LogLines:     cfg.Gateway.LogLines,
		Prober:       prober,
		Logger:       log,
	}
	if mirror != nil {
		supCfg.Mirror = mirror
		a.logFile = mirror
	}
	a.sup = supervisor.New(supCfg)
	a.api = gateway.New(gateway.Config{BaseURL: cfg.GatewayBaseURL(), Logger: log})

	a.docker = docker.New(cfg.Docker.Binary, log)
	a.hardware = hardware.NewSampler(log)
	if opts.Runner != nil {
		a.docker.Runner = opts.Runner
		a.hardware.Runner = opts.Runner
	}
	a.ollama = ollama.New(ollama.Config{BaseURL: cfg.Models.OllamaHost, Logger: log})
	a.updater = updater.New(config.Version, log)

	a.agg = services.New(services.DefaultRegistry(services.RegistryConfig{
		Gateway:          a.sup,
		GatewayPort:      cfg.Gateway.Port,
		OllamaURL:        a.ollama.BaseURL(),
		Docker:           a.docker,
		SearxngContainer: cfg.Docker.SearxngContainer,
		SearxngPort:      cfg.Docker.SearxngPort,
	}), services.Options{
		Prober:       prober,
		ProbeTimeout: cfg.Gateway.ProbeTimeout,
		Logger:       log,
	})
	return a, nil
}

func (a *App) Home() string                       { return a.home }
func (a *App) Config() config.Config              { return a.cfg }
func (a *App) Supervisor() *supervisor.Supervisor { return a.sup }
func (a *App) GatewayAPI() *gateway.Client        { return a.api }
func (a *App) Aggregator() *services.Aggregator   { return a.agg }
func (a *App) Docker() *docker.Client             { return a.docker }
func (a *App) Ollama() *ollama.Client             { return a.ollama }
func (a *App) Updater() *updater.Checker          { return a.updater }
func (a *App) Hardware() *hardware.Sampler        { return a.hardware }

// Bootstrap runs the launch-time pass once: BootstrapAll when auto-start is
// enabled, a plain Collect otherwise. Each entry is logged.
func (a *App) Bootstrap(ctx context.Context) services.StatusReport {
	var report services.StatusReport
	if a.cfg.Gateway.AutoStart {
		report = a.agg.BootstrapAll(ctx)
	} else {
		report = a.agg.Collect(ctx)
	}
	for _, st := range report {
		attrs := []any{"service", st.Name, "running", st.Running, "health", string(st.Health)}
		if st.Details != nil {
			attrs = append(attrs, "details", *st.Details)
		}
		if st.Health == services.HealthError {
			a.log.Warn("bootstrap", attrs...)
		} else {
			a.log.Info("bootstrap", attrs...)
		}
	}
	return report
}

// GatewayStatus is the supervisor snapshot plus a live health probe and,
// while a child exists, its resource usage.
type GatewayStatus struct {
	supervisor.Status
	Healthy   bool                   `json:"healthy"`
	HealthURL string                 `json:"health_url"`
	Usage     *hardware.ProcessUsage `json:"usage,omitempty"`
}

func (a *App) GatewayStatus(ctx context.Context) GatewayStatus {
	gs := GatewayStatus{HealthURL: a.cfg.GatewayHealthURL()}
	gs.Healthy = a.sup.IsRunning(ctx)
	gs.Status = a.sup.Status()
	if gs.PID > 0 {
		if u, err := hardware.SampleProcess(ctx, gs.PID); err == nil {
			gs.Usage = &u
		} else {
			a.log.Debug("gateway usage unavailable", "pid", gs.PID, "error", err)
		}
	}
	return gs
}

// Close stops the gateway and releases the log file.
func (a *App) Close(ctx context.Context) error {
	err := a.sup.Shutdown(ctx)
	if err != nil {
		a.log.Error("gateway shutdown failed", "error", err)
	}
	if a.logFile != nil {
		err = errors.Join(err, a.logFile.Close())
	}
	return err
}

// ShutdownTimeout bounds Close when the caller has no deadline of its own.
func (a *App) ShutdownTimeout() time.Duration {
	return a.cfg.Gateway.StopTimeout + supervisor.DefaultKillTimeout + time.Second
}

// ProbeResult classifies a probe outcome for metrics.
func ProbeResult(err error) string {
	var se *probe.StatusError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, probe.ErrProbeTimeout):
		return "timeout"
	case errors.As(err, &se):
		return "status"
	default:
		return "unreachable"
	}
}
