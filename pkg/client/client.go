// Package client talks to a running alfredd daemon over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "http://127.0.0.1:7878/api"

// ErrConflict is wrapped by APIError for 409 answers (already running / not running).
var ErrConflict = errors.New("conflict")

// APIError is a non-2xx answer from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusConflict {
		return ErrConflict
	}
	return nil
}

// Client provides HTTP client functionality to communicate with the daemon
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 10 * time.Second,
	}
}

// New creates a new daemon API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// IsReachable checks if the daemon is running and reachable
func (c *Client) IsReachable(ctx context.Context) bool {
	err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	c.logger.Debug("Daemon reachability check", "reachable", err == nil, "error", err)
	return err == nil
}

func (c *Client) StartGateway(ctx context.Context) (string, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodPost, "/gateway/start", nil, &out)
	return out.Message, err
}

func (c *Client) StopGateway(ctx context.Context) (string, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodPost, "/gateway/stop", nil, &out)
	return out.Message, err
}

func (c *Client) GatewayStatus(ctx context.Context) (GatewayStatus, error) {
	var out GatewayStatus
	err := c.do(ctx, http.MethodGet, "/gateway/status", nil, &out)
	return out, err
}

// Logs returns the captured gateway output; tail <= 0 returns everything.
func (c *Client) Logs(ctx context.Context, tail int) ([]string, error) {
	path := "/gateway/logs"
	if tail > 0 {
		path += "?tail=" + strconv.Itoa(tail)
	}
	var out LogsResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Lines, err
}

// Services returns the full status report.
func (c *Client) Services(ctx context.Context) ([]ServiceStatus, error) {
	var out []ServiceStatus
	err := c.do(ctx, http.MethodGet, "/services", nil, &out)
	return out, err
}

// Service returns the status of a single registry entry.
func (c *Client) Service(ctx context.Context, name string) (ServiceStatus, error) {
	var out ServiceStatus
	err := c.do(ctx, http.MethodGet, "/services?name="+url.QueryEscape(name), nil, &out)
	return out, err
}

func (c *Client) Models(ctx context.Context) ([]ModelEntry, error) {
	var out []ModelEntry
	err := c.do(ctx, http.MethodGet, "/models", nil, &out)
	return out, err
}

func (c *Client) PullModel(ctx context.Context, name string) (string, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodPost, "/models/pull", PullRequest{Name: name}, &out)
	return out.Message, err
}

func (c *Client) DeleteModel(ctx context.Context, name string) (string, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodDelete, modelPath(name), nil, &out)
	return out.Message, err
}

// ShowModel returns ollama's details for one installed model.
func (c *Client) ShowModel(ctx context.Context, name string) (ModelInfo, error) {
	var out ModelInfo
	err := c.do(ctx, http.MethodGet, modelPath(name), nil, &out)
	return out, err
}

// modelPath escapes each segment of a model name; namespaced names such as
// "library/llama3:latest" keep their slashes.
func modelPath(name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "/models/" + strings.Join(segs, "/")
}

func (c *Client) Containers(ctx context.Context) ([]ContainerInfo, error) {
	var out []ContainerInfo
	err := c.do(ctx, http.MethodGet, "/containers", nil, &out)
	return out, err
}

// StartContainer starts an auxiliary container ("searxng" or "signal-cli").
func (c *Client) StartContainer(ctx context.Context, name string) (ContainerAction, error) {
	var out ContainerAction
	err := c.do(ctx, http.MethodPost, "/containers/"+url.PathEscape(name)+"/start", nil, &out)
	return out, err
}

func (c *Client) StopContainer(ctx context.Context, name string) (ContainerAction, error) {
	var out ContainerAction
	err := c.do(ctx, http.MethodPost, "/containers/"+url.PathEscape(name)+"/stop", nil, &out)
	return out, err
}

// System returns the daemon's hardware snapshot and runtime availability.
func (c *Client) System(ctx context.Context) (SystemInfo, error) {
	var out SystemInfo
	err := c.do(ctx, http.MethodGet, "/system", nil, &out)
	return out, err
}

// Agents lists the gateway's agents; empty while the gateway is down.
func (c *Client) Agents(ctx context.Context) ([]AgentInfo, error) {
	var out []AgentInfo
	err := c.do(ctx, http.MethodGet, "/agents", nil, &out)
	return out, err
}

func (c *Client) CreateAgent(ctx context.Context, cfg AgentConfig) (AgentInfo, error) {
	var out AgentInfo
	err := c.do(ctx, http.MethodPost, "/agents", cfg, &out)
	return out, err
}

func (c *Client) UpdateAgent(ctx context.Context, id string, cfg AgentConfig) (AgentInfo, error) {
	var out AgentInfo
	err := c.do(ctx, http.MethodPut, "/agents/"+url.PathEscape(id), cfg, &out)
	return out, err
}

func (c *Client) DeleteAgent(ctx context.Context, id string) (string, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodDelete, "/agents/"+url.PathEscape(id), nil, &out)
	return out.Message, err
}

func (c *Client) PrivacyScore(ctx context.Context) (PrivacyScore, error) {
	var out PrivacyScore
	err := c.do(ctx, http.MethodGet, "/privacy/score", nil, &out)
	return out, err
}

// AuditLog returns up to limit entries; limit <= 0 leaves the daemon default.
func (c *Client) AuditLog(ctx context.Context, limit int) ([]AuditLogEntry, error) {
	path := "/privacy/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []AuditLogEntry
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CheckUpdate(ctx context.Context) (UpdateInfo, error) {
	var out UpdateInfo
	err := c.do(ctx, http.MethodGet, "/update", nil, &out)
	return out, err
}

// do performs an HTTP request with common error handling. in is sent as
// JSON when non-nil; out receives the decoded 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("HTTP request failed", "error", err, "path", path)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.handleErrorResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// handleErrorResponse handles HTTP error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errorResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Error == "" {
		c.logger.Debug("Failed to decode error response", "status", resp.StatusCode)
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	c.logger.Debug("API request failed", "error", errorResp.Error, "status", resp.StatusCode)
	return &APIError{Status: resp.StatusCode, Message: errorResp.Error}
}
