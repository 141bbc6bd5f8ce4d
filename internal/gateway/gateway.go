// Package gateway is a client for the supervised gateway's own HTTP API:
// agent management and privacy reporting. Read calls degrade to local
// defaults when the gateway cannot be reached.
package gateway

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

const (
	DefaultBaseURL    = "http://127.0.0.1:18789"
	DefaultAuditLimit = 100
	// DefaultPrivacyScore is reported while the gateway is not reachable.
	DefaultPrivacyScore = 100
)

// AgentConfig is the body of agent create and update.
type AgentConfig struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	SystemPrompt string   `json:"system_prompt"`
	Temperature  float32  `json:"temperature"`
	MaxTokens    uint32   `json:"max_tokens"`
	Tools        []string `json:"tools"`
	Enabled      bool     `json:"enabled"`
}

// AgentInfo is one agent as listed by the gateway.
type AgentInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	Enabled    bool   `json:"enabled"`
	ToolsCount int    `json:"tools_count"`
	CreatedAt  string `json:"created_at"`
}

type PrivacyScore struct {
	Score            uint32   `json:"score"`
	LocalMessages    uint64   `json:"local_messages"`
	CloudMessages    uint64   `json:"cloud_messages"`
	RedactedMessages uint64   `json:"redacted_messages"`
	TotalMessages    uint64   `json:"total_messages"`
	Recommendations  []string `json:"recommendations"`
}

type AuditLogEntry struct {
	Timestamp    string  `json:"timestamp"`
	Action       string  `json:"action"`
	Source       string  `json:"source"`
	Destination  string  `json:"destination"`
	DataType     string  `json:"data_type"`
	PrivacyLevel string  `json:"privacy_level"`
	Details      *string `json:"details,omitempty"`
}

// OfflineScore is the score reported when the gateway is down: nothing has
// left the machine.
func OfflineScore() PrivacyScore {
	return PrivacyScore{
		Score:           DefaultPrivacyScore,
		Recommendations: []string{"Gateway not connected - all data stays local by default"},
	}
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("failed to %s: gateway returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("failed to %s (%d): %s", e.Op, e.Status, e.Body)
}

// ErrInvalidID is returned for agent ids that cannot be placed in a path.
var ErrInvalidID = errors.New("invalid agent id")

type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

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
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  &http.Client{},
		timeout: config.Timeout,
		logger:  config.Logger.With("service", "gateway-api"),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// ListAgents returns the configured agents, or none when the gateway is down.
func (c *Client) ListAgents(ctx context.Context) ([]AgentInfo, error) {
	var out []AgentInfo
	err := c.call(ctx, http.MethodGet, "/api/agents", "list agents", nil, &out)
	if c.offline(ctx, err) {
		return []AgentInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []AgentInfo{}
	}
	return out, nil
}

func (c *Client) CreateAgent(ctx context.Context, cfg AgentConfig) (AgentInfo, error) {
	var out AgentInfo
	if err := c.call(ctx, http.MethodPost, "/api/agents", "create agent", cfg, &out); err != nil {
		return AgentInfo{}, err
	}
	c.logger.Info("agent created", "agent", out.ID)
	return out, nil
}

func (c *Client) UpdateAgent(ctx context.Context, id string, cfg AgentConfig) (AgentInfo, error) {
	if !ValidID(id) {
		return AgentInfo{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	var out AgentInfo
	if err := c.call(ctx, http.MethodPut, "/api/agents/"+url.PathEscape(id), "update agent", cfg, &out); err != nil {
		return AgentInfo{}, err
	}
	return out, nil
}

func (c *Client) DeleteAgent(ctx context.Context, id string) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := c.call(ctx, http.MethodDelete, "/api/agents/"+url.PathEscape(id), "delete agent", nil, nil); err != nil {
		return "", err
	}
	c.logger.Info("agent deleted", "agent", id)
	return fmt.Sprintf("Agent %s deleted", id), nil
}

// PrivacyScore returns the gateway's score, or OfflineScore when it is down.
func (c *Client) PrivacyScore(ctx context.Context) (PrivacyScore, error) {
	var out PrivacyScore
	err := c.call(ctx, http.MethodGet, "/api/privacy/score", "get privacy score", nil, &out)
	if c.offline(ctx, err) {
		return OfflineScore(), nil
	}
	if err != nil {
		return PrivacyScore{}, err
	}
	return out, nil
}

// AuditLog returns up to limit entries (DefaultAuditLimit when limit <= 0),
// or none when the gateway is down.
func (c *Client) AuditLog(ctx context.Context, limit int) ([]AuditLogEntry, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	var out []AuditLogEntry
	err := c.call(ctx, http.MethodGet, "/api/privacy/audit?limit="+strconv.Itoa(limit), "get audit log", nil, &out)
	if c.offline(ctx, err) {
		return []AuditLogEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []AuditLogEntry{}
	}
	return out, nil
}

// ValidID accepts ids made of letters, digits, '-', '_' and '.', up to 128 bytes.
func ValidID(id string) bool {
	if id == "" || len(id) > 128 || id == "." || id == ".." {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// transportError marks a request that never got an HTTP answer.
type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// offline reports whether err means the gateway could not be reached while
// the caller was still waiting.
func (c *Client) offline(ctx context.Context, err error) bool {
	var te *transportError
	if !errors.As(err, &te) || ctx.Err() != nil {
		return false
	}
	c.logger.Debug("gateway unreachable, using defaults", "error", err)
	return true
}

func (c *Client) call(ctx context.Context, method, path, op string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

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
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, &transportError{err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	return nil
}
