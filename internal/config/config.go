// Package config loads alfred.json from ALFRED_HOME with ALFRED_* environment
// overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// FileName is the configuration file inside ALFRED_HOME.
	FileName = "alfred.json"
	// EnvFileName holds extra variables for the gateway process.
	EnvFileName = ".env"
	// Version is reported by the daemon and compared by the updater.
	Version = "3.0.0"
)

type Config struct {
	Version string        `json:"version" mapstructure:"version"`
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`
	Models  ModelsConfig  `json:"models" mapstructure:"models"`
	Privacy PrivacyConfig `json:"privacy" mapstructure:"privacy"`
	UI      UIConfig      `json:"ui" mapstructure:"ui"`
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Docker  DockerConfig  `json:"docker" mapstructure:"docker"`
}

type GatewayConfig struct {
	Port         int           `json:"port" mapstructure:"port"`
	AutoStart    bool          `json:"auto_start" mapstructure:"auto_start"`
	Command      string        `json:"command,omitempty" mapstructure:"command"`
	HealthPath   string        `json:"health_path" mapstructure:"health_path"`
	StopTimeout  time.Duration `json:"stop_timeout" mapstructure:"stop_timeout"`
	ProbeTimeout time.Duration `json:"probe_timeout" mapstructure:"probe_timeout"`
	LogLines     int           `json:"log_lines" mapstructure:"log_lines"`
	LogFile      string        `json:"log_file,omitempty" mapstructure:"log_file"`
}

type ModelsConfig struct {
	DefaultModel string `json:"default_model,omitempty" mapstructure:"default_model"`
	OllamaHost   string `json:"ollama_host" mapstructure:"ollama_host"`
}

type PrivacyConfig struct {
	LocalOnly    bool `json:"local_only" mapstructure:"local_only"`
	RedactCloud  bool `json:"redact_cloud" mapstructure:"redact_cloud"`
	AuditEnabled bool `json:"audit_enabled" mapstructure:"audit_enabled"`
}

type UIConfig struct {
	Theme          string `json:"theme" mapstructure:"theme"`
	TrayOnClose    bool   `json:"tray_on_close" mapstructure:"tray_on_close"`
	StartMinimized bool   `json:"start_minimized" mapstructure:"start_minimized"`
}

type ServerConfig struct {
	Listen   string `json:"listen" mapstructure:"listen"`
	BasePath string `json:"base_path" mapstructure:"base_path"`
}

type DockerConfig struct {
	Binary           string `json:"binary" mapstructure:"binary"`
	SearxngContainer string `json:"searxng_container" mapstructure:"searxng_container"`
	SearxngPort      int    `json:"searxng_port" mapstructure:"searxng_port"`
}

// AlfredHome returns $ALFRED_HOME, falling back to ~/.alfred.
func AlfredHome() string {
	if h := strings.TrimSpace(os.Getenv("ALFRED_HOME")); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".alfred"
	}
	return filepath.Join(home, ".alfred")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", Version)
	v.SetDefault("gateway.port", 18789)
	v.SetDefault("gateway.auto_start", true)
	v.SetDefault("gateway.command", "")
	v.SetDefault("gateway.health_path", "/health")
	v.SetDefault("gateway.stop_timeout", 5*time.Second)
	v.SetDefault("gateway.probe_timeout", time.Second)
	v.SetDefault("gateway.log_lines", 2000)
	v.SetDefault("gateway.log_file", "")
	v.SetDefault("models.default_model", "")
	v.SetDefault("models.ollama_host", "http://localhost:11434")
	v.SetDefault("privacy.local_only", true)
	v.SetDefault("privacy.redact_cloud", true)
	v.SetDefault("privacy.audit_enabled", true)
	v.SetDefault("ui.theme", "dark")
	v.SetDefault("ui.tray_on_close", true)
	v.SetDefault("ui.start_minimized", false)
	v.SetDefault("server.listen", "127.0.0.1:7878")
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("docker.binary", "docker")
	v.SetDefault("docker.searxng_container", "alfred-searxng")
	v.SetDefault("docker.searxng_port", 8888)
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// Load reads <home>/alfred.json when present and applies ALFRED_* environment
// overrides (e.g. ALFRED_GATEWAY_PORT). A missing file yields the defaults.
func Load(home string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ALFRED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(home, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the daemon cannot run with.
func (c Config) Validate() error {
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port %d out of range", c.Gateway.Port)
	}
	if c.Docker.SearxngPort <= 0 || c.Docker.SearxngPort > 65535 {
		return fmt.Errorf("docker.searxng_port %d out of range", c.Docker.SearxngPort)
	}
	if c.Gateway.LogLines < 0 {
		return fmt.Errorf("gateway.log_lines must not be negative")
	}
	if !strings.HasPrefix(c.Gateway.HealthPath, "/") {
		return fmt.Errorf("gateway.health_path %q must start with /", c.Gateway.HealthPath)
	}
	return nil
}

// Write stores cfg as pretty-printed JSON in <home>/alfred.json, creating home.
func Write(home string, cfg Config) error {
	if err := os.MkdirAll(home, 0o750); err != nil {
		return fmt.Errorf("failed to create ALFRED_HOME: %w", err)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(home, FileName), append(b, '\n'), 0o600)
}

// GatewayCommand returns the configured gateway command or the default
// "npx tsx <home>/gateway/src/index.ts".
func (c Config) GatewayCommand(home string) string {
	if s := strings.TrimSpace(c.Gateway.Command); s != "" {
		return s
	}
	entry := filepath.Join(home, "gateway", "src", "index.ts")
	if strings.ContainsAny(entry, " \t") {
		entry = strconv.Quote(entry)
	}
	return "npx tsx " + entry
}

// GatewayHealthURL is the loopback URL the supervisor probes.
func (c Config) GatewayHealthURL() string {
	return c.GatewayBaseURL() + c.Gateway.HealthPath
}

// GatewayBaseURL is the loopback root of the gateway's own API.
func (c Config) GatewayBaseURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", c.Gateway.Port)
}

// LoadEnvFile parses a .env file into a map. A missing file yields an empty map.
func LoadEnvFile(path string) (map[string]string, error) {
	m, err := godotenv.Read(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// GatewayEnv returns the extra variables for the gateway child: the contents
// of <home>/.env plus ALFRED_HOME.
func GatewayEnv(home string) (map[string]string, error) {
	m, err := LoadEnvFile(filepath.Join(home, EnvFileName))
	if err != nil {
		return nil, err
	}
	m["ALFRED_HOME"] = home
	return m, nil
}
