package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/archon/alfredd/internal/detector"
	"github.com/archon/alfredd/internal/docker"
)

// Kind selects how an entry's status is derived.
type Kind int

const (
	KindSupervised Kind = iota
	KindRemote
	KindCLI
)

func (k Kind) String() string {
	switch k {
	case KindSupervised:
		return "supervised"
	case KindRemote:
		return "remote"
	case KindCLI:
		return "cli"
	default:
		return "unknown"
	}
}

// Supervised is the part of the process supervisor the aggregator uses.
type Supervised interface {
	Start(ctx context.Context) error
	IsRunning(ctx context.Context) bool
	LastStartError() error
}

// Entry is one registry row. Only the field matching Kind is used.
type Entry struct {
	Name string
	Port int // 0 when the service has no port
	Kind Kind

	Supervisor Supervised // KindSupervised
	Endpoint   string     // KindRemote
	Detector   detector.Detector
	// ActiveHealth is reported when Detector says alive; default healthy.
	ActiveHealth Health
}

// RegistryConfig carries the collaborators of the default registry.
type RegistryConfig struct {
	Gateway          Supervised
	GatewayPort      int
	OllamaURL        string
	Docker           *docker.Client
	SearxngContainer string
	SearxngPort      int
}

// DefaultRegistry returns Gateway, Ollama, Docker and SearXNG in that order.
func DefaultRegistry(c RegistryConfig) []Entry {
	return []Entry{
		{Name: "Gateway", Port: c.GatewayPort, Kind: KindSupervised, Supervisor: c.Gateway},
		{Name: "Ollama", Port: urlPort(c.OllamaURL, 11434), Kind: KindRemote, Endpoint: c.OllamaURL},
		{Name: "Docker", Kind: KindCLI, Detector: c.Docker.RuntimeDetector(), ActiveHealth: HealthAvailable},
		{
			Name:         "SearXNG",
			Port:         c.SearxngPort,
			Kind:         KindCLI,
			Detector:     docker.ContainerDetector{Client: c.Docker, Name: c.SearxngContainer},
			ActiveHealth: HealthHealthy,
		},
	}
}

func urlPort(raw string, def int) int {
	u, err := url.Parse(raw)
	if err != nil {
		return def
	}
	p, err := strconv.Atoi(u.Port())
	if err != nil {
		return def
	}
	return p
}
