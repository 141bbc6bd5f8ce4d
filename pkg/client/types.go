package client

import (
	"encoding/json"
	"time"
)

// ServiceStatus is one row of GET /services.
type ServiceStatus struct {
	Name    string  `json:"name"`
	Running bool    `json:"running"`
	Port    *int    `json:"port,omitempty"`
	Health  string  `json:"health"`
	Details *string `json:"details,omitempty"`
}

// ProcessUsage is the resource usage of the gateway child.
type ProcessUsage struct {
	PID        int32   `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
	MemoryRSS  uint64  `json:"memory_rss"`
	NumThreads int32   `json:"num_threads,omitempty"`
	NumFDs     int32   `json:"num_fds,omitempty"`
}

// GatewayStatus is the response of GET /gateway/status.
type GatewayStatus struct {
	Name      string        `json:"name"`
	State     string        `json:"state"`
	PID       int           `json:"pid,omitempty"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	Healthy   bool          `json:"healthy"`
	HealthURL string        `json:"health_url"`
	Usage     *ProcessUsage `json:"usage,omitempty"`
}

// ModelEntry is one installed model.
type ModelEntry struct {
	Name          string `json:"name"`
	Size          uint64 `json:"size"`
	SizeDisplay   string `json:"size_display"`
	ModifiedAt    string `json:"modified_at"`
	Family        string `json:"family,omitempty"`
	ParameterSize string `json:"parameter_size,omitempty"`
	Quantization  string `json:"quantization,omitempty"`
}

// ModelInfo is the response of GET /models/:name.
type ModelInfo struct {
	Modelfile  string        `json:"modelfile,omitempty"`
	Parameters string        `json:"parameters,omitempty"`
	Template   string        `json:"template,omitempty"`
	Details    *ModelDetails `json:"details,omitempty"`
}

type ModelDetails struct {
	Format            string `json:"format,omitempty"`
	Family            string `json:"family,omitempty"`
	ParameterSize     string `json:"parameter_size,omitempty"`
	QuantizationLevel string `json:"quantization_level,omitempty"`
}

// ContainerAction is returned by the container start and stop endpoints.
type ContainerAction struct {
	OK   bool   `json:"ok"`
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// ContainerInfo is one row of GET /containers.
type ContainerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	Status  string `json:"status"`
	Ports   string `json:"ports"`
	Running bool   `json:"running"`
}

// SystemInfo is the response of GET /system.
type SystemInfo struct {
	Hardware        json.RawMessage `json:"hardware"`
	Recommendations json.RawMessage `json:"recommendations"`
	OllamaAvailable bool            `json:"ollama_available"`
	DockerAvailable bool            `json:"docker_available"`
}

// UpdateInfo is the response of GET /update.
type UpdateInfo struct {
	Available      bool   `json:"available"`
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version"`
	DownloadURL    string `json:"download_url,omitempty"`
	ReleaseNotes   string `json:"release_notes,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
}

// AgentConfig is the body of POST /agents and PUT /agents/{id}.
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

// AgentInfo is one entry of GET /agents.
type AgentInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	Enabled    bool   `json:"enabled"`
	ToolsCount int    `json:"tools_count"`
	CreatedAt  string `json:"created_at"`
}

// PrivacyScore is the response of GET /privacy/score.
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

// PullRequest is the body of POST /models/pull.
type PullRequest struct {
	Name string `json:"name"`
}

// OKResponse is returned by mutating endpoints.
type OKResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// LogsResponse is the response of GET /gateway/logs.
type LogsResponse struct {
	Lines []string `json:"lines"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
