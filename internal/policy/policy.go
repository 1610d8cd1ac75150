package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agentpack/internal/model"
)

const (
	DefaultPolicyPath = ".agentpack/policy.json"
	DefaultDBPath     = ".agentpack/agentpack.db"
)

type Config struct {
	Version int `json:"version"`
	Agent   struct {
		Command string `json:"command"`
		Model   string `json:"model"`
	} `json:"agent"`
	Defaults struct {
		PermissionMode string `json:"permission_mode"`
		Settings       string `json:"settings,omitempty"`
		MCPConfig      string `json:"mcp_config,omitempty"`
	} `json:"defaults"`
	Reports struct {
		Dir string `json:"dir"`
	} `json:"reports"`
	History struct {
		Enabled bool   `json:"enabled"`
		DBPath  string `json:"db_path"`
	} `json:"history"`
	Events struct {
		RedisURL string `json:"redis_url,omitempty"`
		Stream   string `json:"stream"`
	} `json:"events"`
}

func Default() Config {
	cfg := Config{
		Version: 1,
	}
	cfg.Agent.Command = "claude"
	cfg.Agent.Model = "sonnet"
	cfg.Defaults.PermissionMode = string(model.PermissionModeDefault)
	cfg.Reports.Dir = ".agentpack/reports"
	cfg.History.Enabled = true
	cfg.History.DBPath = DefaultDBPath
	cfg.Events.Stream = "agentpack-runs"
	return cfg
}

func Load(path string) (Config, string, error) {
	cfg := Default()
	finalPath := path
	if strings.TrimSpace(finalPath) == "" {
		finalPath = DefaultPolicyPath
	}
	if _, err := os.Stat(finalPath); os.IsNotExist(err) {
		return cfg, finalPath, nil
	}

	b, err := os.ReadFile(finalPath)
	if err != nil {
		return cfg, finalPath, fmt.Errorf("read policy %s: %w", finalPath, err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, finalPath, fmt.Errorf("parse policy %s: %w", finalPath, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, finalPath, fmt.Errorf("validate policy %s: %w", finalPath, err)
	}
	return cfg, finalPath, nil
}

func SaveDefault(path string) error {
	cfg := Default()
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func Validate(cfg Config) error {
	if cfg.Version <= 0 {
		return fmt.Errorf("version must be positive")
	}
	if strings.TrimSpace(cfg.Agent.Command) == "" {
		return fmt.Errorf("agent.command cannot be empty")
	}
	if strings.TrimSpace(cfg.Agent.Model) == "" {
		return fmt.Errorf("agent.model cannot be empty")
	}
	if !model.PermissionMode(cfg.Defaults.PermissionMode).Valid() {
		return fmt.Errorf("defaults.permission_mode must be default|acceptEdits|bypassPermissions|plan")
	}
	if cfg.Defaults.Settings != "" && !json.Valid([]byte(cfg.Defaults.Settings)) {
		return fmt.Errorf("defaults.settings must be valid JSON when set")
	}
	if cfg.Defaults.MCPConfig != "" && !json.Valid([]byte(cfg.Defaults.MCPConfig)) {
		return fmt.Errorf("defaults.mcp_config must be valid JSON when set")
	}
	if strings.TrimSpace(cfg.Reports.Dir) == "" {
		return fmt.Errorf("reports.dir cannot be empty")
	}
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.DBPath) == "" {
		return fmt.Errorf("history.db_path cannot be empty while history is enabled")
	}
	if strings.TrimSpace(cfg.Events.RedisURL) != "" && strings.TrimSpace(cfg.Events.Stream) == "" {
		return fmt.Errorf("events.stream cannot be empty while events.redis_url is set")
	}
	return nil
}

// ReportPath joins a report filename onto the configured report dir;
// absolute paths and paths with an explicit directory are kept as-is.
func (cfg Config) ReportPath(filename string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return ""
	}
	if filepath.IsAbs(filename) || strings.ContainsRune(filename, os.PathSeparator) {
		return filename
	}
	return filepath.Join(cfg.Reports.Dir, filename)
}
