// Package docker drives the container runtime through its CLI. Nothing here
// supervises containers; it only queries and issues one-shot commands.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/archon/alfredd/internal/detector"
)

const (
	// ContainerPrefix marks containers owned by this application.
	ContainerPrefix = "alfred-"
	// SearxngContainer is the default search container name.
	SearxngContainer = "alfred-searxng"
	// SignalContainer is the default signal-cli REST container name.
	SignalContainer = "alfred-signal-cli"

	listFormat = "{{.ID}}|{{.Names}}|{{.Image}}|{{.Status}}|{{.Ports}}"
)

// ContainerInfo is one row of `docker ps`.
type ContainerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	Status  string `json:"status"`
	Ports   string `json:"ports"`
	Running bool   `json:"running"`
}

// Client wraps the docker binary.
type Client struct {
	Binary string
	Runner detector.Runner
	Logger *slog.Logger
}

// New returns a Client for binary (empty means "docker").
func New(binary string, logger *slog.Logger) *Client {
	if binary == "" {
		binary = "docker"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Binary: binary, Runner: detector.ExecRunner{}, Logger: logger}
}

func (c *Client) run(ctx context.Context, args ...string) (string, string, error) {
	stdout, stderr, err := c.Runner.Run(ctx, c.Binary, args...)
	return string(stdout), string(stderr), detector.Classify(ctx, c.Binary, err)
}

// RuntimeDetector reports whether the runtime is installed and its daemon answers.
func (c *Client) RuntimeDetector() detector.Detector {
	return detector.CommandDetector{Runner: c.Runner, Command: c.Binary, Args: []string{"info"}}
}

// Available reports whether `docker info` succeeds.
func (c *Client) Available(ctx context.Context) bool {
	ok, _ := c.RuntimeDetector().Alive(ctx)
	return ok
}

// ListContainers returns all containers (running or not) whose name contains filter.
func (c *Client) ListContainers(ctx context.Context, filter string) ([]ContainerInfo, error) {
	stdout, stderr, err := c.run(ctx, "ps", "-a", "--filter", "name="+filter, "--format", listFormat)
	if err != nil {
		if detector.IsExit(err) {
			return nil, &detector.CLIError{Command: c.Binary + " ps", Reason: reason(stderr, err)}
		}
		return nil, err
	}
	return ParseContainers(stdout), nil
}

// ParseContainers parses `|`-delimited rows produced by listFormat. Missing
// trailing fields are left empty.
func ParseContainers(out string) []ContainerInfo {
	var res []ContainerInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		field := func(i int) string {
			if i < len(parts) {
				return strings.TrimSpace(parts[i])
			}
			return ""
		}
		status := field(3)
		res = append(res, ContainerInfo{
			ID:      field(0),
			Name:    field(1),
			Image:   field(2),
			Status:  status,
			Ports:   field(4),
			Running: isUp(status),
		})
	}
	return res
}

func isUp(status string) bool { return strings.HasPrefix(status, "Up") }

// ContainerRunning reports whether the container with exactly this name is up.
// A runtime that is installed but not answering reports false with a nil error.
func (c *Client) ContainerRunning(ctx context.Context, name string) (bool, error) {
	stdout, _, err := c.run(ctx, "ps", "--filter", "name="+name, "--format", listFormat)
	if err != nil {
		if detector.IsExit(err) {
			return false, nil
		}
		return false, err
	}
	for _, ci := range ParseContainers(stdout) {
		if ci.Name == name {
			return ci.Running, nil
		}
	}
	return false, nil
}

// ContainerDetector adapts ContainerRunning to detector.Detector.
type ContainerDetector struct {
	Client *Client
	Name   string
}

func (d ContainerDetector) Alive(ctx context.Context) (bool, error) {
	return d.Client.ContainerRunning(ctx, d.Name)
}

func (d ContainerDetector) Describe() string { return "container:" + d.Name }

// StartSearxng runs the search container as name (default SearxngContainer)
// publishing hostPort.
func (c *Client) StartSearxng(ctx context.Context, name string, hostPort int) (string, error) {
	if name == "" {
		name = SearxngContainer
	}
	if hostPort <= 0 {
		hostPort = 8888
	}
	return c.runDetached(ctx, name,
		"-p", fmt.Sprintf("%d:8080", hostPort),
		"-e", fmt.Sprintf("SEARXNG_BASE_URL=http://localhost:%d", hostPort),
		"searxng/searxng:latest",
	)
}

// StartSignalCLI runs the signal-cli REST container with its data under home.
func (c *Client) StartSignalCLI(ctx context.Context, home string) (string, error) {
	dataDir := filepath.Join(home, "signal-cli")
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return "", fmt.Errorf("create signal-cli data dir: %w", err)
	}
	return c.runDetached(ctx, SignalContainer,
		"-p", "8820:8080",
		"-v", dataDir+":/home/.local/share/signal-cli",
		"bbernhard/signal-cli-rest-api:latest",
	)
}

func (c *Client) runDetached(ctx context.Context, name string, args ...string) (string, error) {
	full := append([]string{"run", "-d", "--name", name, "--restart", "unless-stopped"}, args...)
	stdout, stderr, err := c.run(ctx, full...)
	if err != nil {
		return "", fmt.Errorf("start %s: %s", name, reason(stderr, err))
	}
	id := strings.TrimSpace(stdout)
	c.Logger.Info("container started", "container", name, "id", id)
	return id, nil
}

// StopContainer stops name and then removes it, ignoring removal failures.
func (c *Client) StopContainer(ctx context.Context, name string) error {
	_, stderr, err := c.run(ctx, "stop", name)
	if err != nil {
		return fmt.Errorf("stop %s: %s", name, reason(stderr, err))
	}
	if _, _, err := c.run(ctx, "rm", name); err != nil {
		c.Logger.Debug("container remove failed", "container", name, "error", err)
	}
	c.Logger.Info("container stopped", "container", name)
	return nil
}

func reason(stderr string, err error) string {
	if s := detector.FirstLine([]byte(stderr)); s != "" {
		return s
	}
	return err.Error()
}
