// Package services builds status reports over a fixed registry of local and
// remote services.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/archon/alfredd/internal/detector"
	"github.com/archon/alfredd/internal/metrics"
	"github.com/archon/alfredd/internal/probe"
	"github.com/archon/alfredd/internal/supervisor"
)

// DefaultCheckTimeout bounds one entry's check inside Collect.
const DefaultCheckTimeout = 3 * time.Second

// ErrUnknownService is returned by Lookup for names outside the registry.
var ErrUnknownService = errors.New("unknown service")

type Options struct {
	Prober       probe.Prober
	ProbeTimeout time.Duration // remote probes
	CheckTimeout time.Duration // whole check per entry
	Logger       *slog.Logger
}

// Aggregator polls every registry entry on each call; nothing is cached.
type Aggregator struct {
	entries      []Entry
	prober       probe.Prober
	probeTimeout time.Duration
	checkTimeout time.Duration
	log          *slog.Logger
}

func New(entries []Entry, opts Options) *Aggregator {
	if opts.Prober == nil {
		opts.Prober = probe.New()
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = probe.DefaultTimeout
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = DefaultCheckTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Aggregator{
		entries:      append([]Entry(nil), entries...),
		prober:       opts.Prober,
		probeTimeout: opts.ProbeTimeout,
		checkTimeout: opts.CheckTimeout,
		log:          opts.Logger,
	}
}

// Names returns the registry names in declaration order.
func (a *Aggregator) Names() []string {
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Name
	}
	return out
}

// Collect checks every entry concurrently and returns one status per entry in
// declaration order.
func (a *Aggregator) Collect(ctx context.Context) StatusReport {
	begin := time.Now()
	report := make(StatusReport, len(a.entries))
	a.collectInto(ctx, report, func(int) bool { return true })
	metrics.ObserveCollect(time.Since(begin).Seconds())
	return report
}

// collectInto fills report[i] for every entry accepted by want.
func (a *Aggregator) collectInto(ctx context.Context, report StatusReport, want func(int) bool) {
	var g errgroup.Group
	for i, e := range a.entries {
		if !want(i) {
			continue
		}
		g.Go(func() error {
			report[i] = a.bounded(ctx, e)
			return nil
		})
	}
	_ = g.Wait()
}

// Lookup checks a single entry by name (case-insensitive).
func (a *Aggregator) Lookup(ctx context.Context, name string) (ServiceStatus, error) {
	for _, e := range a.entries {
		if strings.EqualFold(e.Name, name) {
			return a.bounded(ctx, e), nil
		}
	}
	return ServiceStatus{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
}

// BootstrapAll starts every supervised entry, then observes the others. It
// never starts services it does not own.
func (a *Aggregator) BootstrapAll(ctx context.Context) StatusReport {
	report := make(StatusReport, len(a.entries))
	observe := make(map[int]bool)
	for i, e := range a.entries {
		if e.Kind != KindSupervised {
			observe[i] = true
			continue
		}
		err := e.Supervisor.Start(ctx)
		switch {
		case err == nil:
			report[i] = ServiceStatus{Name: e.Name, Running: true, Port: portPtr(e.Port), Health: HealthStarting}
		case errors.Is(err, supervisor.ErrAlreadyRunning):
			observe[i] = true
		default:
			report[i] = ServiceStatus{
				Name:    e.Name,
				Port:    portPtr(e.Port),
				Health:  HealthError,
				Details: strPtr(err.Error()),
			}
		}
	}
	a.collectInto(ctx, report, func(i int) bool { return observe[i] })
	return report
}

// bounded runs check with the per-entry timeout. A check that does not return
// in time (e.g. blocked behind a Stop) is reported as an error.
func (a *Aggregator) bounded(ctx context.Context, e Entry) ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, a.checkTimeout)
	defer cancel()

	ch := make(chan ServiceStatus, 1)
	go func() { ch <- a.check(ctx, e) }()

	var st ServiceStatus
	select {
	case st = <-ch:
	case <-ctx.Done():
		st = ServiceStatus{Name: e.Name, Port: portPtr(e.Port), Health: HealthError, Details: strPtr("status check timed out")}
	}
	metrics.SetServiceUp(e.Name, st.Running)
	return st
}

func (a *Aggregator) check(ctx context.Context, e Entry) ServiceStatus {
	st := ServiceStatus{Name: e.Name, Port: portPtr(e.Port), Health: HealthNotRunning}
	switch e.Kind {
	case KindSupervised:
		if e.Supervisor.IsRunning(ctx) {
			st.Running, st.Health = true, HealthHealthy
		} else if err := e.Supervisor.LastStartError(); err != nil {
			st.Health, st.Details = HealthError, strPtr(err.Error())
		}
	case KindRemote:
		if err := a.prober.Check(ctx, e.Endpoint, a.probeTimeout); err != nil {
			st.Details = strPtr(probe.Reason(err))
		} else {
			st.Running, st.Health = true, HealthHealthy
		}
	case KindCLI:
		ok, err := e.Detector.Alive(ctx)
		switch {
		case err == nil && ok:
			st.Running, st.Health = true, e.ActiveHealth
			if st.Health == "" {
				st.Health = HealthHealthy
			}
		case err == nil:
		case errors.Is(err, detector.ErrCLIUnavailable):
			st.Health = HealthNotInstalled
		default:
			st.Health, st.Details = HealthError, strPtr(err.Error())
		}
	default:
		st.Health, st.Details = HealthError, strPtr("unknown check kind "+e.Kind.String())
	}
	a.log.Debug("service checked", "service", e.Name, "kind", e.Kind.String(), "health", string(st.Health))
	return st
}
