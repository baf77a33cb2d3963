// Package config loads and validates the bot's configuration from
// ~/.taskbutler/config.json. The file holds secrets and is never committed;
// string values may reference environment variables as ${VAR_NAME}.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	dirName  = ".taskbutler"
	fileName = "config.json"
)

// envVarPattern matches ${VAR_NAME} references in string values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Config is the full bot configuration.
type Config struct {
	Discord     DiscordConfig     `json:"discord"`
	OpenRouter  OpenRouterConfig  `json:"openrouter"`
	OpenProject OpenProjectConfig `json:"openproject"`
	Agent       AgentConfig       `json:"agent"`
}

// DiscordConfig holds the bot token and history window size.
type DiscordConfig struct {
	Token        string `json:"token"`
	HistoryLimit int    `json:"historyLimit,omitempty"`
}

// OpenRouterConfig holds the LLM API credentials and model choice.
type OpenRouterConfig struct {
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`
	BaseURL string `json:"baseURL,omitempty"`
}

// OpenProjectConfig holds the project-management instance credentials.
// Both fields empty disables the project agent tool.
type OpenProjectConfig struct {
	BaseURL string `json:"baseURL,omitempty"`
	APIKey  string `json:"apiKey,omitempty"`
}

// AgentConfig bounds the tool loops.
type AgentConfig struct {
	MaxTurns       int `json:"maxTurns,omitempty"`
	NestedMaxTurns int `json:"nestedMaxTurns,omitempty"`
}

// Enabled reports whether the OpenProject integration is configured.
func (c OpenProjectConfig) Enabled() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// Dir returns the config directory path, ~/.taskbutler by default.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Exists checks whether a config file is present in dir. An empty dir means
// the default location.
func Exists(dir string) bool {
	path, err := resolvePath(dir)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config file from dir (default location when empty),
// resolves ${VAR} references, applies defaults, and validates.
func Load(dir string) (*Config, error) {
	path, err := resolvePath(dir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	resolved := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to dir (default location when empty), creating the
// directory if needed. The file holds secrets, so permissions are 0600.
func Save(dir string, cfg *Config) error {
	path, err := resolvePath(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func resolvePath(dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, fileName), nil
}

func (c *Config) applyDefaults() {
	if c.Discord.HistoryLimit == 0 {
		c.Discord.HistoryLimit = 30
	}
	if c.OpenRouter.Model == "" {
		c.OpenRouter.Model = "anthropic/claude-sonnet-4"
	}
	if c.Agent.MaxTurns == 0 {
		c.Agent.MaxTurns = 6
	}
	if c.Agent.NestedMaxTurns == 0 {
		c.Agent.NestedMaxTurns = 8
	}
}

func (c *Config) validate() error {
	var errs []string

	if c.Discord.Token == "" {
		errs = append(errs, "discord.token is required")
	}
	if c.OpenRouter.APIKey == "" {
		errs = append(errs, "openrouter.apiKey is required")
	}
	if c.OpenProject.BaseURL != "" && c.OpenProject.APIKey == "" {
		errs = append(errs, "openproject.apiKey is required when openproject.baseURL is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("missing required fields:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
