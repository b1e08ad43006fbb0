package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	koanfjson "github.com/knadh/koanf/parsers/json"
	koanfenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// defaultConfigFileName is resolved in the working directory first, then
// in the user home directory.
const defaultConfigFileName = "mogzi.config.json"

// Tool-approval modes.
const (
	ApprovalReadonly = "readonly"
	ApprovalAll      = "all"
)

// Profile is one named model configuration.
type Profile struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
}

// UIConfig holds display preferences.
type UIConfig struct {
	Markdown bool `koanf:"markdown"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// HistoryConfig controls the persistent prompt history store.
type HistoryConfig struct {
	Enabled bool `koanf:"enabled"`
	Limit   int  `koanf:"limit"`
}

// Config is the application configuration assembled from the config file,
// MOGZI_-prefixed environment variables, and CLI overrides.
type Config struct {
	ActiveProfile    string             `koanf:"active_profile"`
	Profiles         map[string]Profile `koanf:"profiles"`
	ToolApprovals    string             `koanf:"tool_approvals"`
	SessionListLimit int                `koanf:"session_list_limit"`
	UI               UIConfig           `koanf:"ui"`
	Logging          LoggingConfig      `koanf:"logging"`
	History          HistoryConfig      `koanf:"history"`

	// Resolved at load time, not persisted.
	ConfigPath string `koanf:"-"`
	WorkingDir string `koanf:"-"`
}

func defaultConfig() Config {
	wd, _ := os.Getwd()
	return Config{
		ActiveProfile: "default",
		Profiles: map[string]Profile{
			"default": {Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
		},
		ToolApprovals:    ApprovalReadonly,
		SessionListLimit: 10,
		UI:               UIConfig{Markdown: true},
		Logging:          LoggingConfig{Level: "info"},
		History:          HistoryConfig{Enabled: true, Limit: 100},
		WorkingDir:       wd,
	}
}

// resolveConfigPath finds the config file: an explicit path wins, then
// the CWD, then the home directory. An empty return means no file exists
// and defaults apply.
func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	if _, err := os.Stat(defaultConfigFileName); err == nil {
		return defaultConfigFileName, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, defaultConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// LoadConfig builds the configuration. profile and approvals are the CLI
// overrides; an unknown profile or approval mode is an error.
func LoadConfig(path, profile, approvals string) (*Config, error) {
	k := koanf.New(".")

	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		if err := k.Load(file.Provider(resolved), koanfjson.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", resolved, err)
		}
	}

	if err := k.Load(koanfenv.Provider(".", koanfenv.Opt{
		Prefix: "MOGZI_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, "MOGZI_")), "_", ".")
			return key, value
		},
	}), nil); err != nil {
		slog.Warn("failed to load environment overrides", "error", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.ConfigPath = resolved
	if cfg.WorkingDir == "" {
		cfg.WorkingDir, _ = os.Getwd()
	}

	if profile != "" {
		cfg.ActiveProfile = profile
	}
	if _, ok := cfg.Profiles[cfg.ActiveProfile]; !ok {
		return nil, fmt.Errorf("unknown profile %q", cfg.ActiveProfile)
	}

	if approvals != "" {
		cfg.ToolApprovals = approvals
	}
	if cfg.ToolApprovals != ApprovalReadonly && cfg.ToolApprovals != ApprovalAll {
		return nil, fmt.Errorf("invalid tool-approvals mode %q (want %s or %s)", cfg.ToolApprovals, ApprovalReadonly, ApprovalAll)
	}

	resolveAPIKey(&cfg)
	return &cfg, nil
}

// Profile returns the active profile.
func (c *Config) Profile() Profile {
	return c.Profiles[c.ActiveProfile]
}

// resolveAPIKey fills the active profile's key from standard environment
// variables, then the OS keyring.
func resolveAPIKey(cfg *Config) {
	p := cfg.Profiles[cfg.ActiveProfile]
	if p.APIKey != "" {
		return
	}

	var envVar string
	switch p.Provider {
	case "anthropic":
		envVar = "ANTHROPIC_API_KEY"
	case "openai":
		envVar = "OPENAI_API_KEY"
	}
	if envVar != "" {
		if key := os.Getenv(envVar); key != "" {
			p.APIKey = key
			cfg.Profiles[cfg.ActiveProfile] = p
			return
		}
	}

	if key, err := GetAPIKeyFromKeyring(p.Provider); err == nil && key != "" {
		p.APIKey = key
		cfg.Profiles[cfg.ActiveProfile] = p
	}
}
