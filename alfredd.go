// Package alfredd is the public facade over the daemon internals: the
// single-child process supervisor, the service health aggregator and the
// HTTP router, for embedding in another program.
package alfredd

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/archon/alfredd/internal/app"
	"github.com/archon/alfredd/internal/config"
	"github.com/archon/alfredd/internal/metrics"
	"github.com/archon/alfredd/internal/probe"
	"github.com/archon/alfredd/internal/server"
	"github.com/archon/alfredd/internal/services"
	"github.com/archon/alfredd/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type SupervisorConfig = supervisor.Config

type Supervisor = supervisor.Supervisor

type ProcessStatus = supervisor.Status

type ServiceStatus = services.ServiceStatus

type StatusReport = services.StatusReport

type Config = config.Config

type App = app.App

type Prober = probe.Prober

var (
	ErrAlreadyRunning = supervisor.ErrAlreadyRunning
	ErrNotRunning     = supervisor.ErrNotRunning
	ErrUnknownService = services.ErrUnknownService
)

// NewSupervisor returns a stopped supervisor for cfg.
func NewSupervisor(cfg SupervisorConfig) *Supervisor { return supervisor.New(cfg) }

// LoadConfig reads alfred.json from home with ALFRED_* overrides.
func LoadConfig(home string) (Config, error) { return config.Load(home) }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return config.Default() }

// NewApp wires a supervisor and aggregator from cfg. Callers must Close it.
func NewApp(home string, cfg Config, logger *slog.Logger) (*App, error) {
	return app.New(app.Options{Home: home, Config: cfg, Logger: logger})
}

// Handler returns the daemon API mounted under basePath.
func Handler(a *App, basePath string) http.Handler {
	return server.NewRouter(a, basePath).Handler()
}

// RegisterMetrics registers the collectors with r. Safe to call twice.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
