// Package ollama is a thin client for the local model daemon's HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:11434"

type ModelDetails struct {
	Format            string `json:"format,omitempty"`
	Family            string `json:"family,omitempty"`
	ParameterSize     string `json:"parameter_size,omitempty"`
	QuantizationLevel string `json:"quantization_level,omitempty"`
}

// Model is one entry of GET /api/tags.
type Model struct {
	Name       string        `json:"name"`
	Size       uint64        `json:"size"`
	Digest     string        `json:"digest"`
	ModifiedAt string        `json:"modified_at"`
	Details    *ModelDetails `json:"details,omitempty"`
}

// ModelInfo is the response of POST /api/show.
type ModelInfo struct {
	Modelfile  string        `json:"modelfile,omitempty"`
	Parameters string        `json:"parameters,omitempty"`
	Template   string        `json:"template,omitempty"`
	Details    *ModelDetails `json:"details,omitempty"`
}

// ModelEntry is a Model flattened for display.
type ModelEntry struct {
	Name          string `json:"name"`
	Size          uint64 `json:"size"`
	SizeDisplay   string `json:"size_display"`
	ModifiedAt    string `json:"modified_at"`
	Family        string `json:"family,omitempty"`
	ParameterSize string `json:"parameter_size,omitempty"`
	Quantization  string `json:"quantization,omitempty"`
}

// APIError is a non-2xx answer from the daemon.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to %s (%d): %s", e.Op, e.Status, e.Body)
}

type Config struct {
	BaseURL string
	Timeout time.Duration // per request; pulls use PullTimeout
	// PullTimeout bounds a non-streaming pull, which returns only when the
	// download finished.
	PullTimeout time.Duration
	Logger      *slog.Logger
}

type Client struct {
	baseURL     string
	client      *http.Client
	timeout     time.Duration
	pullTimeout time.Duration
	logger      *slog.Logger
}

func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.PullTimeout == 0 {
		config.PullTimeout = 30 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		client:      &http.Client{},
		timeout:     config.Timeout,
		pullTimeout: config.PullTimeout,
		logger:      config.Logger.With("service", "ollama"),
	}
}

// BaseURL returns the daemon root, also used as its health endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// Detect reports whether the daemon root answers 2xx.
func (c *Client) Detect(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, min(c.timeout, 3*time.Second))
	defer cancel()
	resp, err := c.do(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		c.logger.Debug("daemon unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ListModels returns the locally available models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus("list models", resp); err != nil {
		return nil, err
	}
	var tags struct {
		Models []Model `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to parse Ollama response: %w", err)
	}
	return tags.Models, nil
}

// ListEntries is ListModels mapped to display entries.
func (c *Client) ListEntries(ctx context.Context) ([]ModelEntry, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ModelEntry, 0, len(models))
	for _, m := range models {
		out = append(out, m.Entry())
	}
	return out, nil
}

// Pull downloads a model and returns once the daemon reports completion.
func (c *Client) Pull(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pullTimeout)
	defer cancel()
	c.logger.Info("pulling model", "model", name)
	body := map[string]any{"name": name, "stream": false}
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/pull", body)
	if err != nil {
		return "", fmt.Errorf("failed to pull model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus("pull model", resp); err != nil {
		return "", err
	}
	return "Successfully pulled model: " + name, nil
}

// Delete removes a local model.
func (c *Client) Delete(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.do(ctx, http.MethodDelete, c.baseURL+"/api/delete", map[string]any{"name": name})
	if err != nil {
		return "", fmt.Errorf("failed to delete model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus("delete model", resp); err != nil {
		return "", err
	}
	c.logger.Info("deleted model", "model", name)
	return "Successfully deleted model: " + name, nil
}

// Show returns details about one model.
func (c *Client) Show(ctx context.Context, name string) (ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/show", map[string]any{"name": name})
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to get model info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus("get model info", resp); err != nil {
		return ModelInfo{}, err
	}
	var info ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to parse model info: %w", err)
	}
	return info, nil
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// Entry flattens m for display.
func (m Model) Entry() ModelEntry {
	e := ModelEntry{
		Name:        m.Name,
		Size:        m.Size,
		SizeDisplay: SizeDisplay(m.Size),
		ModifiedAt:  m.ModifiedAt,
	}
	if m.Details != nil {
		e.Family = m.Details.Family
		e.ParameterSize = m.Details.ParameterSize
		e.Quantization = m.Details.QuantizationLevel
	}
	return e
}

// SizeDisplay renders bytes as "4.1 GB" at or above 1 GiB and "512 MB" below.
func SizeDisplay(size uint64) string {
	gb := float64(size) / (1 << 30)
	if gb >= 1.0 {
		return fmt.Sprintf("%.1f GB", gb)
	}
	return fmt.Sprintf("%.0f MB", float64(size)/(1<<20))
}
